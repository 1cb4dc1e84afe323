// Package hotjobs scrapes the "Hot Jobs" cards on the bdjobs.com home page.
// Each card is one employer with one or more position links; every link
// becomes its own record carrying the employer fields.
package hotjobs

import (
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/scraper"

	"go.uber.org/zap"
)

const Name = "hotjobs"

const (
	FieldCompanyName = "company_name"
	FieldCompanyLogo = "company_logo_url"
	FieldPosition    = "position"
	FieldURL         = "job_url"
	FieldScrapedDate = "scraped_date"
)

var Schema = scraper.Schema{
	Fields: []scraper.FieldSpec{
		{
			Name: FieldCompanyName,
			Rule: extract.Rule{extract.Joined("h3 .wr"), extract.Text("h3")},
		},
		{
			Name: FieldCompanyLogo,
			Rule: extract.Rule{
				extract.Attr(".companyLogo img", "src"),
				extract.Attr(".companyLogo img", "data-src"),
			},
			URL: true,
		},
	},
	ItemSelector: ".companyDetails li a",
	ItemFields: []scraper.FieldSpec{
		{
			Name:     FieldPosition,
			Rule:     extract.Rule{extract.Joined(".wr"), extract.Text("")},
			Critical: true,
		},
		{
			Name:     FieldURL,
			Rule:     extract.Rule{extract.Attr("", "href")},
			Critical: true,
			URL:      true,
		},
	},
	TimestampField: FieldScrapedDate,
}

// Listing returns the hot jobs listing. The section is rendered client-side,
// so the walk waits for the section heading before reading cards.
func Listing(baseURL string) scraper.Listing {
	return scraper.Listing{
		Name:            Name,
		BaseURL:         baseURL,
		Navigation:      scraper.NavigateByNextControl,
		ReadySelector:   ".m-text-center",
		SectionSelector: ".c-card",
		Schema:          Schema,
	}
}

func NewHotJobsScraper(src config.Source, log *zap.Logger) *scraper.ListingScraper {
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
