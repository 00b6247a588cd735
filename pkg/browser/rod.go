package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodBackend struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	wait       time.Duration
	navTimeout time.Duration
}

// launchRod starts Chrome with container-friendly flags and opens one page.
func launchRod(cfg Config) (backend, error) {
	if cfg.Engine != EngineChrome {
		return nil, fmt.Errorf("rod cannot launch %s", cfg.Engine)
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodBackend{
		launcher:   l,
		browser:    b,
		page:       page,
		wait:       cfg.ImplicitWait,
		navTimeout: cfg.NavigationTimeout,
	}, nil
}

// timeoutPage is the deadline half of *rod.Page.
type timeoutPage[P any] interface {
	Timeout(d time.Duration) P
	CancelTimeout() P
}

// withPageTimeout bounds p by d and returns the func that releases it.
// rod panics on CancelTimeout for a page that never had a timeout, so
// d <= 0 leaves p alone and the release is a no-op.
func withPageTimeout[P timeoutPage[P]](p P, d time.Duration) (P, func()) {
	if d <= 0 {
		return p, func() {}
	}
	bounded := p.Timeout(d)
	return bounded, func() { bounded.CancelTimeout() }
}

func (r *rodBackend) timed() (*rod.Page, func()) {
	return withPageTimeout(r.page, r.navTimeout)
}

func (r *rodBackend) navigate(url string) error {
	p, cancel := r.timed()
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (r *rodBackend) title() (string, error) {
	info, err := r.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (r *rodBackend) find(css string) (Element, error) {
	var (
		el  *rod.Element
		err error
	)
	if r.wait <= 0 {
		el, err = r.page.Sleeper(rod.NotFoundSleeper).Element(css)
	} else {
		p, cancel := withPageTimeout(r.page, r.wait)
		el, err = p.Element(css)
		cancel()
	}
	if err != nil {
		if rodLookupMissed(err) {
			return nil, fmt.Errorf("%w: %w", errNoMatch, err)
		}
		return nil, err
	}
	// Detach from the lookup deadline so later calls are not cancelled.
	return &rodElement{backend: r, el: el.Context(r.page.GetContext())}, nil
}

// rodLookupMissed reports whether err means the selector matched nothing
// before the lookup gave up.
func rodLookupMissed(err error) bool {
	var notFound *rod.ElementNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, context.DeadlineExceeded)
}

func (r *rodBackend) close() error {
	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}

type rodElement struct {
	backend *rodBackend
	el      *rod.Element
}

func (e *rodElement) eval(js string, args ...interface{}) (string, error) {
	res, err := e.el.Eval(js, args...)
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Text() (string, error) {
	return e.eval(textScript)
}

func (e *rodElement) Attribute(name string) (string, error) {
	return e.eval(attributeScript, name)
}

func (e *rodElement) SetAttribute(name, value string) error {
	_, err := e.eval(setAttributeScript, name, value)
	return err
}

func (e *rodElement) Submit() error {
	p, cancel := e.backend.timed()
	defer cancel()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if _, err := e.eval(submitScript); err != nil {
		return err
	}
	wait()
	return nil
}
