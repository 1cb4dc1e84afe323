package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/reporter"
	"go-jobboard-scraper/internal/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<article class="post"><h2 class="entry-title"><a href="/bank-job/">Bank Job Circular</a></h2>
<div class="job-vacancy"><span class="job-value">45</span></div>
<div class="job-deadline"><span class="job-value">30 March 2025</span></div></article>
<article class="post"><h2 class="entry-title"><a href="/police-job/">Police Job Circular</a></h2>
<div class="job-vacancy"><span class="job-value">বিভিন্ন</span></div></article>
</body></html>`

type site struct {
	*httptest.Server
	apiCalls atomic.Int32
}

func newSite(t *testing.T, apiStatus int) *site {
	t.Helper()
	s := &site{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api":
			s.apiCalls.Add(1)
			w.WriteHeader(apiStatus)
		case r.URL.Path == "/jobs/":
			w.Write([]byte(listingPage))
		default:
			w.Write([]byte("<html><body></body></html>"))
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func testConfig(t *testing.T, s *site) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Renderer = "static"
	cfg.RunOnce = true
	cfg.HotJobs.Enabled = false
	cfg.GovtJob = config.Source{
		Enabled:    true,
		BaseURL:    s.URL + "/jobs/",
		MaxPages:   20,
		EmptyPages: 3,
		CSVFile:    filepath.Join(dir, "jobs.csv"),
		JSONFile:   filepath.Join(dir, "jobs.json"),
		APIURL:     s.URL + "/api",
		APITimeout: time.Second,
	}
	return cfg
}

type notifier struct {
	reports []reporter.SourceReport
}

func (n *notifier) SendSummary(reports []reporter.SourceReport) error {
	n.reports = reports
	return errors.New("telegram down")
}

func TestPipeline_Run(t *testing.T) {
	s := newSite(t, http.StatusInternalServerError)
	cfg := testConfig(t, s)
	n := &notifier{}
	var out bytes.Buffer

	p := New(cfg, nil, WithNotifier(n), WithOutput(&out))
	sources, err := p.Sources(SourceAll)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	reports := p.Run(context.Background(), sources)
	require.Len(t, reports, 1)
	r := reports[0]

	assert.Equal(t, "govtjob", r.Source)
	assert.NoError(t, r.Err)
	assert.Equal(t, 2, r.Records)
	assert.Equal(t, 4, r.Stats.Pages)
	require.NotNil(t, r.Vacancies)
	assert.Equal(t, reporter.VacancyStats{WithVacancies: 2, TotalVacancies: 45, WithDeadline: 1}, *r.Vacancies)

	require.Len(t, r.Results, 3)
	assert.Equal(t, sink.StatusOK, r.Results[0].Status)
	assert.Equal(t, sink.StatusOK, r.Results[1].Status)
	assert.Equal(t, sink.StatusFailed, r.Results[2].Status)
	assert.Equal(t, int32(1), s.apiCalls.Load())

	back, err := sink.ReadJSON(cfg.GovtJob.JSONFile)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())

	assert.Len(t, n.reports, 1, "notifier errors are not fatal")
	assert.Contains(t, out.String(), "Total vacancies: 45")
}

func TestPipeline_EmptySiteWritesNothing(t *testing.T) {
	s := newSite(t, http.StatusOK)
	cfg := testConfig(t, s)
	cfg.GovtJob.BaseURL = s.URL + "/nothing/"

	p := New(cfg, nil, WithOutput(&bytes.Buffer{}))
	sources, err := p.Sources("govtjob")
	require.NoError(t, err)
	reports := p.Run(context.Background(), sources)

	require.Len(t, reports, 1)
	assert.Equal(t, 0, reports[0].Records)
	for _, res := range reports[0].Results {
		assert.Equal(t, sink.StatusSkipped, res.Status)
	}
	assert.Equal(t, int32(0), s.apiCalls.Load())
	_, err = os.Stat(cfg.GovtJob.CSVFile)
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_RendererStartFailure(t *testing.T) {
	s := newSite(t, http.StatusOK)
	cfg := testConfig(t, s)
	cfg.HotJobs.Enabled = true

	opened := 0
	p := New(cfg, nil, WithOutput(&bytes.Buffer{}), WithOpener(func(ctx context.Context) (browser.Renderer, error) {
		opened++
		if opened == 1 {
			return nil, errors.New("chromium not installed")
		}
		return browser.NewStaticRenderer(browser.Options{}), nil
	}))
	sources, err := p.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 2)

	reports := p.Run(context.Background(), sources)
	require.Len(t, reports, 2)
	assert.Equal(t, "hotjobs", reports[0].Source)
	assert.ErrorContains(t, reports[0].Err, "chromium not installed")
	assert.Empty(t, reports[0].Results)
	assert.True(t, reports[0].Failed())

	assert.Equal(t, "govtjob", reports[1].Source)
	assert.Equal(t, 2, reports[1].Records, "next source still runs")
}

func TestPipeline_Sources(t *testing.T) {
	cfg := config.Default()
	cfg.GovtJob.Enabled = false
	p := New(cfg, nil)

	all, err := p.Sources(SourceAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "hotjobs", all[0].Scraper.Name())

	picked, err := p.Sources("govtjob", "hotjobs")
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "govtjob", picked[0].Scraper.Name())
	assert.True(t, picked[0].CountVacancies)

	_, err = p.Sources("linkedin")
	assert.ErrorContains(t, err, `unknown source "linkedin"`)
}

func TestPipeline_SinksFollowConfig(t *testing.T) {
	cfg := config.Default()
	p := New(cfg, nil)
	sources, err := p.Sources("hotjobs", "govtjob")
	require.NoError(t, err)

	var names []string
	for _, s := range p.sinks(sources[0]) {
		names = append(names, s.Name())
	}
	assert.Equal(t, "csv,api", strings.Join(names, ","))

	names = names[:0]
	for _, s := range p.sinks(sources[1]) {
		names = append(names, s.Name())
	}
	assert.Equal(t, "csv,json,api", strings.Join(names, ","))
}
