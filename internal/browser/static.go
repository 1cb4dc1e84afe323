package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// StaticRenderer fetches pages over plain HTTP and parses them with goquery.
// It runs no JavaScript, so it only suits server-rendered listings.
type StaticRenderer struct {
	client *resty.Client
	doc    *goquery.Document
	url    string
	log    *zap.Logger
}

func NewStaticRenderer(opts Options) *StaticRenderer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &StaticRenderer{client: client, log: log}
}

func (r *StaticRenderer) Load(ctx context.Context, target string) error {
	resp, err := r.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch %s: HTTP %d", target, resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}
	r.doc = doc
	r.url = resp.RawResponse.Request.URL.String()
	return nil
}

// WaitForElement does not poll: a static document is complete once loaded.
func (r *StaticRenderer) WaitForElement(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := r.FindOne(selector)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return el, err
}

func (r *StaticRenderer) FindAll(selector string) ([]Element, error) {
	if r.doc == nil {
		return nil, errors.New("no page loaded")
	}
	return r.wrap(r.doc.Find(selector)), nil
}

func (r *StaticRenderer) FindOne(selector string) (Element, error) {
	els, err := r.FindAll(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return els[0], nil
}

// HTML returns the document as parsed, before any script would have run.
func (r *StaticRenderer) HTML() (string, error) {
	if r.doc == nil {
		return "", errors.New("no page loaded")
	}
	return r.doc.Html()
}

func (r *StaticRenderer) URL() string {
	return r.url
}

func (r *StaticRenderer) Close() error {
	r.doc = nil
	r.client.GetClient().CloseIdleConnections()
	return nil
}

func (r *StaticRenderer) wrap(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &staticElement{sel: s, r: r})
	})
	return out
}

type staticElement struct {
	sel *goquery.Selection
	r   *StaticRenderer
}

func (e *staticElement) FindAll(selector string) ([]Element, error) {
	return e.r.wrap(e.sel.Find(selector)), nil
}

func (e *staticElement) FindOne(selector string) (Element, error) {
	found := e.sel.Find(selector)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &staticElement{sel: found.First(), r: e.r}, nil
}

// Text approximates rendered text: elements hidden by the hidden attribute
// or an inline display:none render nothing.
func (e *staticElement) Text() (string, error) {
	if _, hidden := e.sel.Attr("hidden"); hidden {
		return "", nil
	}
	style, _ := e.sel.Attr("style")
	if strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
		return "", nil
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *staticElement) Property(name string) (string, error) {
	switch name {
	case "innerText", "textContent":
		return e.sel.Text(), nil
	case "innerHTML":
		return e.sel.Html()
	}
	return "", nil
}

func (e *staticElement) Attribute(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e *staticElement) ScrollIntoView() error {
	return nil
}

// Click follows the element's href, which is all a static page can do.
func (e *staticElement) Click() error {
	href, ok := e.sel.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return errors.New("element is not a link")
	}
	target, err := resolve(e.r.url, href)
	if err != nil {
		return err
	}
	return e.r.Load(context.Background(), target)
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u, err := b.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
