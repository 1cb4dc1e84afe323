// Package govtjob scrapes the government job circular listing of bdgovtjob.net.
package govtjob

import (
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/scraper"

	"go.uber.org/zap"
)

const Name = "govtjob"

const (
	FieldTitle      = "job_title"
	FieldURL        = "job_url"
	FieldVacancies  = "vacancies"
	FieldDeadline   = "deadline"
	FieldPostedDate = "posted_date"
	FieldScrapedAt  = "scraped_at"
)

const titleLink = "h2.entry-title a, .entry-title a, header.entry-header a"

var Schema = scraper.Schema{
	Fields: []scraper.FieldSpec{
		{
			Name:     FieldTitle,
			Rule:     extract.Rule{extract.Text(titleLink)},
			Critical: true,
		},
		{
			Name:     FieldURL,
			Rule:     extract.Rule{extract.Attr(titleLink, "href")},
			Critical: true,
			URL:      true,
		},
		{
			Name: FieldVacancies,
			Rule: extract.Rule{
				extract.Text(".job-vacancy .job-value"),
				extract.Text(".job-info-box.job-vacancy .job-value"),
			},
		},
		{
			Name: FieldDeadline,
			Rule: extract.Rule{
				extract.Text(".job-deadline .job-value"),
				extract.Text(".job-info-box.job-deadline .job-value"),
			},
		},
		{
			Name: FieldPostedDate,
			Rule: extract.Rule{
				extract.Text("time.published"),
				extract.Text("time.entry-date"),
				extract.Text(".posted-on time"),
				extract.Attr("time", "datetime"),
			},
		},
	},
	TimestampField: FieldScrapedAt,
}

// Listing returns the listing walked page by page through /page/N/ URLs.
func Listing(baseURL string) scraper.Listing {
	return scraper.Listing{
		Name:            Name,
		BaseURL:         baseURL,
		Navigation:      scraper.NavigateByURL,
		SectionSelector: "article.post",
		Schema:          Schema,
	}
}

func NewGovtJobScraper(src config.Source, log *zap.Logger) *scraper.ListingScraper {
	listing := Listing(src.BaseURL)
	if len(src.NextControls) > 0 {
		listing.NextSelectors = src.NextControls
	}
	return &scraper.ListingScraper{
		Listing: listing,
		Options: scraper.WalkOptions{
			MaxPages:       src.MaxPages,
			EmptyPageLimit: src.EmptyPages,
			WaitTimeout:    src.WaitTimeout,
			SettleDelay:    src.SettleDelay,
			PageDelay:      src.PageDelay,
			DebugDir:       src.DebugDir,
		},
		Log: log,
	}
}
