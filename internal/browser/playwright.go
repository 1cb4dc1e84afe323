package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightRenderer drives a headless Chromium through playwright.
type PlaywrightRenderer struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	log     *zap.Logger
}

func NewPlaywrightRenderer(ctx context.Context, opts Options) (*PlaywrightRenderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	r := &PlaywrightRenderer{pw: pw, browser: browser, log: opts.Logger}

	var cookies []playwright.OptionalCookie
	if opts.CookiesFile != "" {
		cookies, err = LoadCookies(opts.CookiesFile)
		if err != nil {
			opts.Logger.Warn("⚠️ Could not load cookies, continuing without them",
				zap.String("file", opts.CookiesFile), zap.Error(err))
		} else {
			opts.Logger.Info("🍪 Loaded cookies", zap.Int("count", len(cookies)))
		}
	}

	r.bctx, err = browser.NewContext()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if len(cookies) > 0 {
		if err := r.bctx.AddCookies(cookies); err != nil {
			opts.Logger.Warn("⚠️ Could not add cookies", zap.Error(err))
		}
	}

	r.page, err = r.bctx.NewPage()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return r, nil
}

func (r *PlaywrightRenderer) Load(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := r.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("navigate to %s: HTTP %d", url, resp.Status())
	}
	return nil
}

func (r *PlaywrightRenderer) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := r.page.Locator(selector).First()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
		}
		return nil, err
	}
	return &pwElement{loc: loc}, nil
}

func (r *PlaywrightRenderer) FindAll(selector string) ([]Element, error) {
	return locatorAll(r.page.Locator(selector))
}

func (r *PlaywrightRenderer) FindOne(selector string) (Element, error) {
	return locatorOne(r.page.Locator(selector), selector)
}

func (r *PlaywrightRenderer) URL() string {
	return r.page.URL()
}

func (r *PlaywrightRenderer) HTML() (string, error) {
	return r.page.Content()
}

func (r *PlaywrightRenderer) Screenshot(path string) error {
	_, err := r.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close releases page, context, browser and the driver, in that order.
func (r *PlaywrightRenderer) Close() error {
	var errs []error
	if r.bctx != nil {
		errs = append(errs, r.bctx.Close())
	}
	if r.browser != nil {
		errs = append(errs, r.browser.Close())
	}
	if r.pw != nil {
		errs = append(errs, r.pw.Stop())
	}
	return errors.Join(errs...)
}

type pwElement struct {
	loc playwright.Locator
}

func locatorAll(loc playwright.Locator) ([]Element, error) {
	items, err := loc.All()
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(items))
	for i, it := range items {
		out[i] = &pwElement{loc: it}
	}
	return out, nil
}

func locatorOne(loc playwright.Locator, selector string) (Element, error) {
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &pwElement{loc: loc.First()}, nil
}

// short keeps reads on an already located element from waiting the default 30s.
var short = playwright.Float(2000)

func (e *pwElement) FindAll(selector string) ([]Element, error) {
	return locatorAll(e.loc.Locator(selector))
}

func (e *pwElement) FindOne(selector string) (Element, error) {
	return locatorOne(e.loc.Locator(selector), selector)
}

func (e *pwElement) Text() (string, error) {
	visible, err := e.loc.IsVisible()
	if err != nil || !visible {
		return "", err
	}
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: short})
}

func (e *pwElement) Property(name string) (string, error) {
	switch name {
	case "innerText":
		return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: short})
	case "textContent":
		return e.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: short})
	}
	v, err := e.loc.Evaluate("(el, name) => el[name]", name, playwright.LocatorEvaluateOptions{Timeout: short})
	if err != nil || v == nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), nil
	}
	return s, nil
}

func (e *pwElement) Attribute(name string) (string, error) {
	return e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: short})
}

func (e *pwElement) ScrollIntoView() error {
	return e.loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: short})
}

func (e *pwElement) Click() error {
	return e.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)})
}
