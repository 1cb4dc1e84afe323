// Package browser wraps the page renderers the scrapers drive.
// Every backend exposes the same small Renderer/Element surface so the
// walker and extractors never touch a driver API directly.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrTimeout  = errors.New("timed out waiting for element")
	ErrNotFound = errors.New("element not found")
)

// Renderer loads and renders one page at a time. A Renderer is a single
// browser session and must be closed by whoever opened it.
type Renderer interface {
	Load(ctx context.Context, url string) error
	// WaitForElement blocks until selector is attached or timeout elapses (ErrTimeout).
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	FindAll(selector string) ([]Element, error)
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(selector string) (Element, error)
	// URL is the address of the currently loaded page.
	URL() string
	Close() error
}

// Element is one rendered DOM node.
type Element interface {
	FindAll(selector string) ([]Element, error)
	FindOne(selector string) (Element, error)
	// Text is the visible rendered text.
	Text() (string, error)
	// Property reads a DOM property such as innerText or textContent.
	Property(name string) (string, error)
	// Attribute returns "" when the attribute is absent.
	Attribute(name string) (string, error)
	ScrollIntoView() error
	Click() error
}

type Options struct {
	Headless    bool
	CookiesFile string
	Logger      *zap.Logger
}

// Open starts a renderer session for the named backend. Failing to start a
// session is the one fatal error of a scrape run.
func Open(ctx context.Context, backend string, opts Options) (Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	switch backend {
	case "playwright", "":
		return NewPlaywrightRenderer(ctx, opts)
	case "rod":
		return NewRodRenderer(ctx, opts)
	case "static":
		return NewStaticRenderer(opts), nil
	default:
		return nil, fmt.Errorf("unknown renderer backend %q", backend)
	}
}
