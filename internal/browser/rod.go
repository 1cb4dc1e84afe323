package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// RodRenderer drives Chromium over CDP with go-rod.
type RodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	log      *zap.Logger
}

func NewRodRenderer(ctx context.Context, opts Options) (*RodRenderer, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("could not connect to chromium: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &RodRenderer{launcher: l, browser: browser, page: page, log: opts.Logger}, nil
}

func (r *RodRenderer) Load(ctx context.Context, url string) error {
	p := r.page.Context(ctx).Timeout(30 * time.Second)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		r.log.Debug("page did not settle", zap.String("url", url), zap.Error(err))
	}
	return nil
}

func (r *RodRenderer) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	el, err := r.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
		}
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (r *RodRenderer) HTML() (string, error) {
	return r.page.HTML()
}

func (r *RodRenderer) Screenshot(path string) error {
	img, err := r.page.Screenshot(true, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, img, 0644)
}

func (r *RodRenderer) FindAll(selector string) ([]Element, error) {
	els, err := r.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (r *RodRenderer) FindOne(selector string) (Element, error) {
	return rodOne(r.page.Elements(selector))
}

func (r *RodRenderer) URL() string {
	info, err := r.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (r *RodRenderer) Close() error {
	err := r.browser.Close()
	r.launcher.Kill()
	r.launcher.Cleanup()
	return err
}

type rodElement struct {
	el *rod.Element
}

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}

func rodOne(els rod.Elements, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	if els.Empty() {
		return nil, ErrNotFound
	}
	return &rodElement{el: els.First()}, nil
}

func (e *rodElement) FindAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (e *rodElement) FindOne(selector string) (Element, error) {
	return rodOne(e.el.Elements(selector))
}

func (e *rodElement) Text() (string, error) {
	visible, err := e.el.Visible()
	if err != nil || !visible {
		return "", err
	}
	return e.el.Text()
}

func (e *rodElement) Property(name string) (string, error) {
	v, err := e.el.Property(name)
	if err != nil || v.Nil() {
		return "", err
	}
	return v.Str(), nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
