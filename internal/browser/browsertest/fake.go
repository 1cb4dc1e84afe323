// Package browsertest provides an in-memory Renderer for tests: pages are
// maps of selector to elements, and nothing waits or sleeps.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-jobboard-scraper/internal/browser"
)

// Element is a scripted DOM node.
type Element struct {
	Visible  string
	Props    map[string]string
	Attrs    map[string]string
	Children map[string][]*Element
	// Err is returned by every read on this element.
	Err error
	// Panic makes every read panic, simulating a broken driver binding.
	Panic   bool
	OnClick func() error

	Clicks   int
	Scrolled int
}

// Page maps document-level selectors to their matches.
type Page map[string][]*Element

// Renderer serves Pages keyed by URL.
type Renderer struct {
	Pages map[string]Page
	// LoadErrs makes Load fail for the given URLs.
	LoadErrs map[string]error

	Loads  []string
	Closed bool

	current Page
	url     string
}

func NewRenderer() *Renderer {
	return &Renderer{Pages: map[string]Page{}, LoadErrs: map[string]error{}}
}

func (r *Renderer) Load(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Loads = append(r.Loads, url)
	if err, ok := r.LoadErrs[url]; ok {
		return err
	}
	page, ok := r.Pages[url]
	if !ok {
		return fmt.Errorf("fetch %s: HTTP 404", url)
	}
	r.current = page
	r.url = url
	return nil
}

func (r *Renderer) WaitForElement(ctx context.Context, selector string, _ time.Duration) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := r.current[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return els[0], nil
}

func (r *Renderer) FindAll(selector string) ([]browser.Element, error) {
	if r.current == nil {
		return nil, errors.New("no page loaded")
	}
	return wrap(r.current[selector]), nil
}

func (r *Renderer) FindOne(selector string) (browser.Element, error) {
	els := r.current[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return els[0], nil
}

func (r *Renderer) URL() string {
	return r.url
}

// HTML stands in for a DOM dump of the current page.
func (r *Renderer) HTML() (string, error) {
	if r.current == nil {
		return "", errors.New("no page loaded")
	}
	return fmt.Sprintf("<!-- %s -->", r.url), nil
}

func (r *Renderer) Close() error {
	r.Closed = true
	return nil
}

// LinkTo returns a clickable element that loads url in r.
func (r *Renderer) LinkTo(url string) *Element {
	return &Element{
		Visible: "Next",
		Attrs:   map[string]string{"href": url},
		OnClick: func() error { return r.Load(context.Background(), url) },
	}
}

func wrap(els []*Element) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out
}

func (e *Element) check() error {
	if e.Panic {
		panic("browsertest: element detached")
	}
	return e.Err
}

func (e *Element) FindAll(selector string) ([]browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return wrap(e.Children[selector]), nil
}

func (e *Element) FindOne(selector string) (browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	els := e.Children[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return els[0], nil
}

func (e *Element) Text() (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.Visible, nil
}

func (e *Element) Property(name string) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.Props[name], nil
}

func (e *Element) Attribute(name string) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (e *Element) ScrollIntoView() error {
	e.Scrolled++
	return e.check()
}

func (e *Element) Click() error {
	if err := e.check(); err != nil {
		return err
	}
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}
