// Package pipeline wires scrapers, renderers and sinks into one run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/reporter"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/internal/scraper/govtjob"
	"go-jobboard-scraper/internal/scraper/hotjobs"
	"go-jobboard-scraper/internal/sink"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SourceAll selects every enabled source.
const SourceAll = "all"

// Opener starts a fresh renderer session for one source run.
type Opener func(ctx context.Context) (browser.Renderer, error)

// Notifier receives the run summary.
type Notifier interface {
	SendSummary(reports []reporter.SourceReport) error
}

// Source is one configured listing together with its outputs.
type Source struct {
	Scraper scraper.Scraper
	Config  config.Source

	URLField       string
	TimestampField string
	// CountVacancies adds vacancy statistics to the report.
	CountVacancies bool
}

type Pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	open     Opener
	pool     *pgxpool.Pool
	notifier Notifier
	out      io.Writer
}

type Option func(*Pipeline)

// WithOpener replaces the renderer factory built from the config.
func WithOpener(open Opener) Option {
	return func(p *Pipeline) { p.open = open }
}

// WithPostgres adds a PostgresSink backed by pool to every source.
func WithPostgres(pool *pgxpool.Pool) Option {
	return func(p *Pipeline) { p.pool = pool }
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithOutput sets where the summary table is printed.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, log: log, out: os.Stdout}
	p.open = func(ctx context.Context) (browser.Renderer, error) {
		return browser.Open(ctx, cfg.Renderer, browser.Options{
			Headless:    cfg.Headless,
			CookiesFile: cfg.CookiesFile,
			Logger:      log,
		})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sources resolves source names. SourceAll, or no names at all, selects
// every enabled source.
func (p *Pipeline) Sources(names ...string) ([]Source, error) {
	all := []Source{
		{
			Scraper:        hotjobs.NewHotJobsScraper(p.cfg.HotJobs, p.log.Named(hotjobs.Name)),
			Config:         p.cfg.HotJobs,
			URLField:       hotjobs.FieldURL,
			TimestampField: hotjobs.FieldScrapedDate,
		},
		{
			Scraper:        govtjob.NewGovtJobScraper(p.cfg.GovtJob, p.log.Named(govtjob.Name)),
			Config:         p.cfg.GovtJob,
			URLField:       govtjob.FieldURL,
			TimestampField: govtjob.FieldScrapedAt,
			CountVacancies: true,
		},
	}

	if len(names) == 0 || (len(names) == 1 && names[0] == SourceAll) {
		var enabled []Source
		for _, s := range all {
			if s.Config.Enabled {
				enabled = append(enabled, s)
			}
		}
		return enabled, nil
	}

	var picked []Source
	for _, name := range names {
		found := false
		for _, s := range all {
			if s.Scraper.Name() == name {
				picked = append(picked, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown source %q (want %s, %s or %s)", name, hotjobs.Name, govtjob.Name, SourceAll)
		}
	}
	return picked, nil
}

// Run scrapes every source in turn, dispatches its records and reports the
// outcome. One source failing never stops the next.
func (p *Pipeline) Run(ctx context.Context, sources []Source) []reporter.SourceReport {
	start := time.Now()
	p.log.Info("🚀 Scrape run started", zap.Int("sources", len(sources)))

	reports := make([]reporter.SourceReport, 0, len(sources))
	for _, s := range sources {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, p.runSource(ctx, s))
	}

	reporter.Summary(p.out, reports)
	if p.notifier != nil && len(reports) > 0 {
		if err := p.notifier.SendSummary(reports); err != nil {
			p.log.Warn("⚠️ Failed to send Telegram summary", zap.Error(err))
		}
	}
	p.log.Info("✅ Scrape run finished", zap.Duration("took", time.Since(start)))
	return reports
}

func (p *Pipeline) runSource(ctx context.Context, s Source) reporter.SourceReport {
	name := s.Scraper.Name()
	report := reporter.SourceReport{Source: name}
	log := p.log.With(zap.String("source", name))

	log.Info("▶️ Starting scraper")
	r, err := p.open(ctx)
	if err != nil {
		log.Error("❌ Failed to start renderer", zap.Error(err))
		report.Err = fmt.Errorf("start renderer: %w", err)
		return report
	}

	coll, stats, err := s.Scraper.Scrape(ctx, r)
	report.Stats = stats
	report.Records = coll.Len()
	if err != nil {
		log.Warn("⚠️ Scrape ended early, keeping partial results", zap.Error(err))
		report.Err = err
	}
	if s.CountVacancies {
		vs := reporter.CountVacancies(coll, govtjob.FieldVacancies, govtjob.FieldDeadline)
		report.Vacancies = &vs
	}

	// partial results are still written after an interrupt
	report.Results = sink.NewDispatcher(log, p.sinks(s)...).Dispatch(context.WithoutCancel(ctx), coll)
	return report
}

func (p *Pipeline) sinks(s Source) []sink.Sink {
	var sinks []sink.Sink
	if s.Config.CSVFile != "" {
		sinks = append(sinks, &sink.CSVSink{Path: s.Config.CSVFile})
	}
	if s.Config.JSONFile != "" {
		sinks = append(sinks, &sink.JSONSink{Path: s.Config.JSONFile})
	}
	if s.Config.APIURL != "" {
		sinks = append(sinks, sink.NewHTTPSink(s.Config.APIURL, s.Config.APITimeout, p.log))
	}
	if p.pool != nil {
		sinks = append(sinks, sink.NewPostgresSink(p.pool, s.Scraper.Name(), s.URLField, s.TimestampField))
	}
	return sinks
}
