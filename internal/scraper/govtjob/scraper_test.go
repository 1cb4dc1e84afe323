package govtjob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page1 = `<html><body><main>
<article class="post">
  <header class="entry-header"><h2 class="entry-title"><a href="/bangladesh-bank-job-circular/">Bangladesh Bank   Job Circular 2025</a></h2></header>
  <div class="posted-on"><time class="entry-date published" datetime="2025-03-10">10 March 2025</time></div>
  <div class="job-info-box job-vacancy"><span class="job-value">45</span></div>
  <div class="job-info-box job-deadline"><span class="job-value">30 March 2025</span></div>
</article>
<article class="post">
  <h2 class="entry-title"><a href="https://bdgovtjob.net/dghs-job-circular/" aria-label="DGHS Job Circular"></a></h2>
</article>
<article class="post">
  <h2 class="entry-title"><span>No link here</span></h2>
</article>
</main></body></html>`

const page2 = `<html><body>
<article class="post"><h2 class="entry-title"><a href="/police-job/">Police Job Circular</a></h2>
<div class="job-vacancy"><span class="job-value">1200</span></div></article>
</body></html>`

const emptyPage = `<html><body><p>Nothing found</p></body></html>`

func newSite(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch {
		case r.URL.Path == "/category/government-jobs-circular/":
			w.Write([]byte(page1))
		case strings.HasSuffix(r.URL.Path, "/page/2/"):
			w.Write([]byte(page2))
		default:
			w.Write([]byte(emptyPage))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGovtJobScraper_Scrape(t *testing.T) {
	srv, hits := newSite(t)

	s := NewGovtJobScraper(config.Source{
		BaseURL:    srv.URL + "/category/government-jobs-circular/",
		MaxPages:   20,
		EmptyPages: 3,
	}, nil)
	assert.Equal(t, "govtjob", s.Name())

	coll, stats, err := s.Scrape(context.Background(), browser.NewStaticRenderer(browser.Options{}))
	require.NoError(t, err)

	assert.Equal(t, 5, *hits, "pages 1-2 plus three empty pages")
	assert.Equal(t, 5, stats.Pages)
	require.Equal(t, 3, coll.Len())
	assert.Equal(t, 1, stats.Skipped)

	recs := coll.Records()
	first := recs[0]
	assert.Equal(t, []string{FieldTitle, FieldURL, FieldVacancies, FieldDeadline, FieldPostedDate, FieldScrapedAt}, first.Names())
	assert.Equal(t, "Bangladesh Bank Job Circular 2025", first.Value(FieldTitle))
	assert.Equal(t, srv.URL+"/bangladesh-bank-job-circular/", first.Value(FieldURL))
	assert.Equal(t, "45", first.Value(FieldVacancies))
	assert.Equal(t, "30 March 2025", first.Value(FieldDeadline))
	assert.Equal(t, "10 March 2025", first.Value(FieldPostedDate))

	second := recs[1]
	assert.Equal(t, "DGHS Job Circular", second.Value(FieldTitle))
	assert.Equal(t, extract.NotAvailable, second.Value(FieldVacancies))
	assert.Equal(t, extract.NotAvailable, second.Value(FieldPostedDate))

	third := recs[2]
	assert.Equal(t, "Police Job Circular", third.Value(FieldTitle))
	assert.Equal(t, "1200", third.Value(FieldVacancies))
}

func TestListing(t *testing.T) {
	l := Listing("https://bdgovtjob.net/category/government-jobs-circular/")
	assert.Equal(t, "article.post", l.SectionSelector)
	assert.Equal(t, Name, l.Name)
}
