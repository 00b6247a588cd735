package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

type chromedpBackend struct {
	ctx         context.Context // tab context; cancelling it closes the browser
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	wait        time.Duration
	navTimeout  time.Duration
}

// launchChromedp starts Chrome through an exec allocator so the browser
// process is owned by, and dies with, the session.
func launchChromedp(cfg Config) (backend, error) {
	if cfg.Engine != EngineChrome {
		return nil, fmt.Errorf("chromedp cannot launch %s", cfg.Engine)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.BrowserBin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BrowserBin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}

	return &chromedpBackend{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		wait:        cfg.ImplicitWait,
		navTimeout:  cfg.NavigationTimeout,
	}, nil
}

func (c *chromedpBackend) withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(c.ctx)
	}
	return context.WithTimeout(c.ctx, d)
}

func (c *chromedpBackend) navigate(url string) error {
	ctx, cancel := c.withTimeout(c.navTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Navigate(url))
}

func (c *chromedpBackend) title() (string, error) {
	var title string
	if err := chromedp.Run(c.ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (c *chromedpBackend) find(css string) (Element, error) {
	ctx, cancel := c.withTimeout(c.wait)
	defer cancel()

	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if c.wait <= 0 {
		opts = append(opts, chromedp.AtLeast(0))
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(css, &nodes, opts...)); err != nil {
		if chromedpLookupMissed(err) {
			return nil, fmt.Errorf("%w: %w", errNoMatch, err)
		}
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errNoMatch
	}
	return &chromedpElement{backend: c, node: nodes[0]}, nil
}

// chromedpLookupMissed reports whether err is the lookup deadline expiring
// while the selector still matched nothing.
func chromedpLookupMissed(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func (c *chromedpBackend) close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	c.allocCancel()
	return err
}

type chromedpElement struct {
	backend *chromedpBackend
	node    *cdp.Node
}

func (e *chromedpElement) call(fn string, res interface{}, args ...interface{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, e.node, fn, res, args...)
	})
}

func (e *chromedpElement) Text() (string, error) {
	var text string
	err := chromedp.Run(e.backend.ctx, e.call(textScript, &text))
	return text, err
}

func (e *chromedpElement) Attribute(name string) (string, error) {
	var value string
	err := chromedp.Run(e.backend.ctx, e.call(attributeScript, &value, name))
	return value, err
}

func (e *chromedpElement) SetAttribute(name, value string) error {
	var ok bool
	return chromedp.Run(e.backend.ctx, e.call(setAttributeScript, &ok, name, value))
}

// Submit waits for the navigation the submission triggers.
func (e *chromedpElement) Submit() error {
	ctx, cancel := e.backend.withTimeout(e.backend.navTimeout)
	defer cancel()

	var ok bool
	_, err := chromedp.RunResponse(ctx, e.call(submitScript, &ok))
	return err
}
