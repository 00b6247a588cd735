package browser

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightBackend struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	page       playwright.Page
	wait       time.Duration
	navTimeout time.Duration
}

// launchPlaywright starts a playwright driver, then Chromium or Firefox.
// Browsers are downloaded first only when cfg.InstallBrowsers is set.
func launchPlaywright(cfg Config) (backend, error) {
	name := "chromium"
	if cfg.Engine == EngineFirefox {
		name = "firefox"
	}
	opts := &playwright.RunOptions{
		Browsers: []string{name},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if cfg.InstallBrowsers {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.BrowserBin != "" {
		launchOpts.ExecutablePath = playwright.String(cfg.BrowserBin)
	}

	browserType := pw.Chromium
	if cfg.Engine == EngineFirefox {
		browserType = pw.Firefox
	}
	b, err := browserType.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", name, err)
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if cfg.NavigationTimeout > 0 {
		page.SetDefaultNavigationTimeout(millis(cfg.NavigationTimeout))
	}

	return &playwrightBackend{
		pw:         pw,
		browser:    b,
		page:       page,
		wait:       cfg.ImplicitWait,
		navTimeout: cfg.NavigationTimeout,
	}, nil
}

// millis converts to playwright's float milliseconds.
func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (p *playwrightBackend) navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (p *playwrightBackend) title() (string, error) {
	return p.page.Title()
}

func (p *playwrightBackend) find(css string) (Element, error) {
	var (
		handle playwright.ElementHandle
		err    error
	)
	if p.wait <= 0 {
		handle, err = p.page.QuerySelector(css)
	} else {
		handle, err = p.page.WaitForSelector(css, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(millis(p.wait)),
		})
	}
	if err != nil {
		if playwrightLookupMissed(err) {
			return nil, fmt.Errorf("%w: %w", errNoMatch, err)
		}
		return nil, err
	}
	if handle == nil {
		return nil, errNoMatch
	}
	return &playwrightElement{backend: p, handle: handle}, nil
}

// playwrightLookupMissed reports whether err is WaitForSelector timing out.
func playwrightLookupMissed(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}

func (p *playwrightBackend) close() error {
	return errors.Join(p.page.Close(), p.browser.Close(), p.pw.Stop())
}

type playwrightElement struct {
	backend *playwrightBackend
	handle  playwright.ElementHandle
}

func (e *playwrightElement) eval(fn string, args ...interface{}) (string, error) {
	if args == nil {
		args = []interface{}{}
	}
	v, err := e.handle.Evaluate(applyScript(fn), args)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", nil
}

func (e *playwrightElement) Text() (string, error) {
	return e.eval(textScript)
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.eval(attributeScript, name)
}

func (e *playwrightElement) SetAttribute(name, value string) error {
	_, err := e.eval(setAttributeScript, name, value)
	return err
}

// Submit waits for the navigation the submission triggers.
func (e *playwrightElement) Submit() error {
	var opts playwright.PageExpectNavigationOptions
	if e.backend.navTimeout > 0 {
		opts.Timeout = playwright.Float(millis(e.backend.navTimeout))
	}
	_, err := e.backend.page.ExpectNavigation(func() error {
		_, err := e.eval(submitScript)
		return err
	}, opts)
	return err
}
