// Package browser provides the browser session fixture used by the
// functional tests: launch a browser, point it at a page, query elements,
// and tear the browser down exactly once.
//
// Three drivers are available. rod and chromedp speak the Chrome DevTools
// Protocol to Chrome/Chromium; playwright drives Chromium or Firefox.
//
//	s, err := browser.Acquire(browser.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer browser.Release(s)
//
//	if err := browser.Navigate(s, "http://localhost:8000"); err != nil {
//		return err
//	}
//	amount, err := browser.Query(s, browser.CSS(".to_amount"))
package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/thesyncim/dimdim/internal/logging"
)

// Element is the part of a driver's element handle the harness relies on.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	SetAttribute(name, value string) error
	Submit() error
}

// Session is a running, remotely controlled browser owned by one test at a time.
type Session interface {
	ID() string
	Navigate(url string) error
	Title() (string, error)
	Find(sel Selector) (Element, error)
	Release() error
}

// backend is implemented once per driver. Errors are returned raw; the
// session classifies them.
type backend interface {
	navigate(url string) error
	title() (string, error)
	find(css string) (Element, error)
	close() error
}

type launchFunc func(cfg Config) (backend, error)

var launchers = map[Driver]launchFunc{
	DriverRod:        launchRod,
	DriverChromedp:   launchChromedp,
	DriverPlaywright: launchPlaywright,
}

// Acquire validates cfg and launches a browser for it.
func Acquire(cfg Config) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	driver := cfg.ResolvedDriver()
	launch, ok := launchers[driver]
	if !ok {
		return nil, fmt.Errorf("%w: no launcher for driver %q", ErrSessionCreation, driver)
	}

	logger := logging.Get()
	start := time.Now()
	b, err := launch(cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", string(driver)).Str("engine", string(cfg.Engine)).Msg("browser launch failed")
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrSessionCreation, driver, cfg.Engine, err)
	}

	s := &session{
		id:      uuid.NewString(),
		driver:  driver,
		engine:  cfg.Engine,
		backend: b,
		logger:  logger,
	}
	acquiredCount.Add(1)
	logger.Debug().Str("session", s.id).Str("driver", string(driver)).Str("engine", string(cfg.Engine)).
		Bool("headless", cfg.Headless).Dur("elapsed", time.Since(start)).Msg("browser session acquired")
	return s, nil
}

// Navigate loads url in s.
func Navigate(s Session, url string) error {
	return s.Navigate(url)
}

// Query returns the text of the first element matching sel.
func Query(s Session, sel Selector) (string, error) {
	el, err := s.Find(sel)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// QueryAttribute returns the named attribute (or live property) of the
// first element matching sel.
func QueryAttribute(s Session, sel Selector, name string) (string, error) {
	el, err := s.Find(sel)
	if err != nil {
		return "", err
	}
	return el.Attribute(name)
}

// Release terminates the browser behind s. It is safe to call more than once.
func Release(s Session) error {
	if s == nil {
		return nil
	}
	return s.Release()
}

type session struct {
	id      string
	driver  Driver
	engine  Engine
	backend backend
	logger  *log.Logger

	mu         sync.Mutex
	released   bool
	releaseErr error
}

func (s *session) ID() string { return s.id }

func (s *session) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *session) Navigate(url string) error {
	if s.isReleased() {
		return ErrSessionReleased
	}
	s.logger.Debug().Str("session", s.id).Str("url", url).Msg("navigate")
	if err := s.backend.navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

func (s *session) Title() (string, error) {
	if s.isReleased() {
		return "", ErrSessionReleased
	}
	title, err := s.backend.title()
	if err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

func (s *session) Find(sel Selector) (Element, error) {
	if s.isReleased() {
		return nil, ErrSessionReleased
	}
	el, err := s.backend.find(sel.CSS())
	switch {
	case errors.Is(err, errNoMatch):
		return nil, &ElementNotFoundError{Selector: sel, Err: err}
	case err != nil:
		return nil, fmt.Errorf("failed to look up %s: %w", sel, err)
	}
	return el, nil
}

// Release closes the backend on the first call only and returns that
// call's error on every call.
func (s *session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return s.releaseErr
	}
	s.released = true
	releasedCount.Add(1)

	if err := s.backend.close(); err != nil {
		s.releaseErr = fmt.Errorf("failed to close %s browser: %w", s.driver, err)
		s.logger.Warn().Err(err).Str("session", s.id).Msg("browser close failed")
		return s.releaseErr
	}
	s.logger.Debug().Str("session", s.id).Msg("browser session released")
	return nil
}
