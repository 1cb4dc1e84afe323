// Package reporter prints and sends the outcome of a scrape run.
package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/internal/sink"

	"github.com/jedib0t/go-pretty/v6/table"
)

// SourceReport is everything one source produced in a run.
type SourceReport struct {
	Source  string
	Stats   scraper.Stats
	Records int
	Results []sink.Result
	Err     error

	// Vacancies is set for sources that carry vacancy and deadline fields.
	Vacancies *VacancyStats
}

// Failed reports whether the source could not run or a sink failed.
func (r SourceReport) Failed() bool {
	return r.Err != nil || sink.Failed(r.Results)
}

type VacancyStats struct {
	WithVacancies  int
	TotalVacancies int
	WithDeadline   int
}

// CountVacancies summarises the vacancy and deadline fields of c. Vacancy
// values that are not plain integers count as "with info" but add nothing
// to the total.
func CountVacancies(c scraper.Collection, vacancyField, deadlineField string) VacancyStats {
	var vs VacancyStats
	for _, rec := range c.Records() {
		if v, ok := rec.Get(vacancyField); ok && !extract.IsMissing(v) {
			vs.WithVacancies++
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				vs.TotalVacancies += n
			}
		}
		if d, ok := rec.Get(deadlineField); ok && !extract.IsMissing(d) {
			vs.WithDeadline++
		}
	}
	return vs
}

// Summary renders the per-source and per-sink tables for a run.
func Summary(w io.Writer, reports []SourceReport) {
	sources := table.NewWriter()
	sources.SetOutputMirror(w)
	sources.SetTitle("📊 SUMMARY")
	sources.AppendHeader(table.Row{"Source", "Pages", "Sections", "Records", "Skipped", "Failed pages", "Stopped", "Took"})
	for _, r := range reports {
		stop := r.Stats.StopReason
		if r.Err != nil {
			stop = "error: " + r.Err.Error()
		}
		sources.AppendRow(table.Row{
			r.Source, r.Stats.Pages, r.Stats.Sections, r.Records,
			r.Stats.Skipped, r.Stats.FailedPages, stop, r.Stats.Duration.Round(time.Millisecond),
		})
	}
	sources.SetStyle(table.StyleRounded)
	sources.Render()

	outputs := table.NewWriter()
	outputs.SetOutputMirror(w)
	outputs.AppendHeader(table.Row{"Source", "Sink", "Status", "Detail"})
	for _, r := range reports {
		for _, res := range r.Results {
			detail := res.Detail
			if res.Err != nil {
				detail = res.Err.Error()
			}
			outputs.AppendRow(table.Row{r.Source, res.Sink, statusIcon(res.Status), detail})
		}
	}
	outputs.SetStyle(table.StyleRounded)
	outputs.Render()

	for _, r := range reports {
		if r.Vacancies == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", r.Source)
		fmt.Fprintf(w, "   Total jobs: %d\n", r.Records)
		fmt.Fprintf(w, "   Jobs with vacancy info: %d\n", r.Vacancies.WithVacancies)
		fmt.Fprintf(w, "   Total vacancies: %d\n", r.Vacancies.TotalVacancies)
		fmt.Fprintf(w, "   Jobs with deadline: %d\n", r.Vacancies.WithDeadline)
	}
}

func statusIcon(s sink.Status) string {
	switch s {
	case sink.StatusOK:
		return "✅ ok"
	case sink.StatusFailed:
		return "❌ failed"
	default:
		return "⏭ skipped"
	}
}
