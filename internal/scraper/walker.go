package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-jobboard-scraper/internal/browser"

	"go.uber.org/zap"
)

// Navigation selects how the walker reaches page N+1.
type Navigation int

const (
	// NavigateByURL loads base for page 1 and base/page/N/ afterwards.
	NavigateByURL Navigation = iota
	// NavigateByNextControl clicks the first "next" control found on the page.
	NavigateByNextControl
)

func (n Navigation) String() string {
	if n == NavigateByNextControl {
		return "next control"
	}
	return "direct URL"
}

// DefaultNextSelectors are the pagination controls tried in priority order.
var DefaultNextSelectors = []string{
	"a.next.page-numbers",
	".nav-links a.next",
	".pagination a.next",
	"a[rel='next']",
	".wp-pagenavi a.nextpostslink",
}

// Listing describes one paginated source.
type Listing struct {
	Name            string
	BaseURL         string
	Navigation      Navigation
	ReadySelector   string
	SectionSelector string
	NextSelectors   []string
	Schema          Schema
}

type WalkOptions struct {
	MaxPages       int
	EmptyPageLimit int
	WaitTimeout    time.Duration
	SettleDelay    time.Duration
	// PageDelay is the pause between pages; after a next-control click it
	// lets the new page load.
	PageDelay time.Duration
	// DebugDir, when set, receives a snapshot of page 1 and of every empty page.
	DebugDir string
}

func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		MaxPages:       10,
		EmptyPageLimit: 3,
		WaitTimeout:    15 * time.Second,
	}
}

// Cursor tracks pagination progress.
type Cursor struct {
	Page       int
	Mode       Navigation
	EmptyPages int
}

// Observe records how many sections the current page held.
func (c *Cursor) Observe(sections int) {
	if sections == 0 {
		c.EmptyPages++
		return
	}
	c.EmptyPages = 0
}

// Done reports whether the walk must stop after the current page.
func (c Cursor) Done(maxPages, emptyLimit int) bool {
	return c.Page >= maxPages || c.EmptyPages >= emptyLimit
}

// Stats summarises one walk.
type Stats struct {
	Source      string
	Pages       int
	Sections    int
	Records     int
	Skipped     int
	FailedPages int
	StopReason  string
	Duration    time.Duration
}

// Walker drives one renderer across the pages of a listing. A Walker owns
// its renderer and closes it when Run returns.
type Walker struct {
	listing  Listing
	opts     WalkOptions
	renderer browser.Renderer
	builder  *Builder
	snaps    *browser.SnapshotDebugger
	log      *zap.Logger
	stats    Stats
}

func NewWalker(r browser.Renderer, listing Listing, opts WalkOptions, log *zap.Logger) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.EmptyPageLimit < 1 {
		opts.EmptyPageLimit = 3
	}
	if len(listing.NextSelectors) == 0 {
		listing.NextSelectors = DefaultNextSelectors
	}
	log = log.With(zap.String("source", listing.Name))
	w := &Walker{
		listing:  listing,
		opts:     opts,
		renderer: r,
		builder:  NewBuilder(listing.Schema, log),
		log:      log,
	}
	if opts.DebugDir != "" {
		w.snaps = browser.NewSnapshotDebugger(opts.DebugDir, log)
	}
	return w
}

// Builder exposes the record builder, e.g. to swap its clock in tests.
func (w *Walker) Builder() *Builder {
	return w.builder
}

func (w *Walker) Stats() Stats {
	return w.stats
}

// PageURL returns the address of page n in direct-URL mode.
func PageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%spage/%d/", base, n)
}

// Run walks the listing and returns every record found, in discovery order.
// Page failures count as empty pages; only a cancelled context or a panic in
// the walk itself is returned as an error, alongside the partial collection.
func (w *Walker) Run(ctx context.Context) (coll Collection, err error) {
	start := time.Now()
	w.stats = Stats{Source: w.listing.Name}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("walk %s aborted: %v", w.listing.Name, p)
			w.stats.StopReason = "aborted"
		}
		if cerr := w.renderer.Close(); cerr != nil {
			w.log.Warn("⚠️ Failed to close renderer", zap.Error(cerr))
		}
		w.log.Info("🔒 Browser closed")
		w.stats.Records = coll.Len()
		w.stats.Duration = time.Since(start)
	}()

	w.log.Info("🚀 Starting walk",
		zap.String("target", w.listing.BaseURL),
		zap.Int("max_pages", w.opts.MaxPages),
		zap.Stringer("method", w.listing.Navigation))

	cursor := Cursor{Page: 1, Mode: w.listing.Navigation}
	for {
		if err := ctx.Err(); err != nil {
			w.stats.StopReason = "cancelled"
			return coll, err
		}

		// fetching
		ready := w.fetch(ctx, cursor)
		w.stats.Pages++

		// extracting
		found := 0
		if ready {
			found = w.extractPage(cursor.Page, &coll)
		}
		cursor.Observe(found)
		if found == 0 {
			w.log.Warn(fmt.Sprintf("⚠ No sections found on page %d", cursor.Page),
				zap.Int("consecutive_empty", cursor.EmptyPages))
		}
		if w.snaps != nil && (found == 0 || cursor.Page == 1) {
			w.snapshot(cursor.Page)
		}

		// advancing
		if cursor.Done(w.opts.MaxPages, w.opts.EmptyPageLimit) {
			if cursor.EmptyPages >= w.opts.EmptyPageLimit {
				w.stats.StopReason = fmt.Sprintf("%d consecutive empty pages", cursor.EmptyPages)
			} else {
				w.stats.StopReason = "page limit reached"
			}
			break
		}

		if cursor.Mode == NavigateByNextControl {
			if !w.clickNext(ctx) {
				w.stats.StopReason = "no next page control"
				break
			}
		} else if err := sleep(ctx, w.opts.PageDelay); err != nil {
			w.stats.StopReason = "cancelled"
			return coll, err
		}
		cursor.Page++
	}

	w.log.Info("✅ Walk complete",
		zap.Int("pages", w.stats.Pages),
		zap.Int("records", coll.Len()),
		zap.String("stop_reason", w.stats.StopReason))
	return coll, nil
}

// fetch loads the page for the cursor and waits for it to become ready.
// It reports false when the page could not be loaded or never became ready.
func (w *Walker) fetch(ctx context.Context, c Cursor) bool {
	if c.Mode == NavigateByURL || c.Page == 1 {
		target := w.listing.BaseURL
		if c.Mode == NavigateByURL {
			target = PageURL(w.listing.BaseURL, c.Page)
		}
		w.log.Info(fmt.Sprintf("📡 Loading page %d", c.Page), zap.String("url", target))
		if err := w.renderer.Load(ctx, target); err != nil {
			w.log.Warn(fmt.Sprintf("❌ Failed to load page %d", c.Page), zap.Error(err))
			w.stats.FailedPages++
			return false
		}
	}

	if sel := w.readySelector(); sel != "" {
		if _, err := w.renderer.WaitForElement(ctx, sel, w.opts.WaitTimeout); err != nil {
			w.log.Warn(fmt.Sprintf("⚠ Timeout waiting for %s on page %d", sel, c.Page), zap.Error(err))
			if !errors.Is(err, browser.ErrTimeout) {
				w.stats.FailedPages++
			}
			return false
		}
	}

	if err := sleep(ctx, w.opts.SettleDelay); err != nil {
		return false
	}
	return true
}

func (w *Walker) readySelector() string {
	if w.listing.ReadySelector != "" {
		return w.listing.ReadySelector
	}
	return w.listing.SectionSelector
}

// extractPage builds every section of the loaded page into coll and returns
// the number of sections found.
func (w *Walker) extractPage(page int, coll *Collection) int {
	sections, err := w.renderer.FindAll(w.listing.SectionSelector)
	if err != nil {
		w.log.Warn("⚠️ Error finding sections", zap.Int("page", page), zap.Error(err))
		w.stats.FailedPages++
		return 0
	}
	if len(sections) == 0 {
		return 0
	}

	w.log.Info(fmt.Sprintf("📦 Found %d sections on page %d", len(sections), page))
	w.stats.Sections += len(sections)

	pageURL := w.renderer.URL()
	built := 0
	for i, el := range sections {
		records, err := w.buildSafe(Section{
			Element: el,
			Page:    page,
			Index:   i + 1,
			Total:   len(sections),
			PageURL: pageURL,
		})
		if err != nil {
			w.stats.Skipped++
			continue
		}
		coll.Append(records...)
		built += len(records)
	}
	w.log.Info(fmt.Sprintf("✅ Page %d complete: %d records", page, built))
	return len(sections)
}

// buildSafe confines a broken section to itself.
func (w *Walker) buildSafe(s Section) (records []Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			w.log.Warn(fmt.Sprintf("  ✗ Error processing section %d", s.Index), zap.Any("panic", p))
			records, err = nil, fmt.Errorf("%w: %v", ErrSkip, p)
		}
	}()
	return w.builder.BuildAll(s)
}

// clickNext activates the first next-page control found. It reports false
// when no control exists or clicking it failed.
func (w *Walker) clickNext(ctx context.Context) bool {
	for _, sel := range w.listing.NextSelectors {
		next, err := w.renderer.FindOne(sel)
		if err != nil {
			continue
		}
		if err := next.ScrollIntoView(); err != nil {
			w.log.Debug("scroll into view failed", zap.String("selector", sel), zap.Error(err))
		}
		if err := next.Click(); err != nil {
			w.log.Warn("⚠ Error clicking next page", zap.String("selector", sel), zap.Error(err))
			return false
		}
		w.log.Info("  ➡ Clicked next page button", zap.String("selector", sel))
		return sleep(ctx, w.opts.PageDelay) == nil
	}
	w.log.Info("  ℹ No next page button found")
	return false
}

func (w *Walker) snapshot(page int) {
	name := fmt.Sprintf("%s_page%d", w.listing.Name, page)
	if _, err := w.snaps.Capture(w.renderer, name); err != nil {
		w.log.Warn("⚠ Could not save snapshot", zap.Int("page", page), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
