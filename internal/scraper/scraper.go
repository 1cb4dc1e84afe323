// Package scraper turns paginated listing pages into flat job records.
package scraper

import (
	"context"

	"go-jobboard-scraper/internal/browser"

	"go.uber.org/zap"
)

// Scraper is implemented by every listing source.
type Scraper interface {
	// Name is the source name (hotjobs, govtjob, ...).
	Name() string

	// Scrape walks the source with r and closes r before returning.
	Scrape(ctx context.Context, r browser.Renderer) (Collection, Stats, error)
}

// ListingScraper scrapes a declaratively described Listing.
type ListingScraper struct {
	Listing Listing
	Options WalkOptions
	Log     *zap.Logger
}

func (s *ListingScraper) Name() string {
	return s.Listing.Name
}

func (s *ListingScraper) Scrape(ctx context.Context, r browser.Renderer) (Collection, Stats, error) {
	w := NewWalker(r, s.Listing, s.Options, s.Log)
	coll, err := w.Run(ctx)
	return coll, w.Stats(), err
}
