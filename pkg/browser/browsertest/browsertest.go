// Package browsertest wires browser sessions into Go tests. A Scope owns
// one session for one test; Shared hands a single session to tests one
// after another.
package browsertest

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/thesyncim/dimdim/pkg/browser"
)

// DefaultBaseURL is where the converter is expected when DIMDIM_BASE_URL is unset.
const DefaultBaseURL = "http://localhost:8000"

// BaseURL returns DIMDIM_BASE_URL or DefaultBaseURL, without a trailing slash.
func BaseURL() string {
	if u := os.Getenv("DIMDIM_BASE_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultBaseURL
}

// Acquirer launches sessions. browser.Acquire is the production value.
type Acquirer func(cfg browser.Config) (browser.Session, error)

// Scope owns one browser session for the lifetime of a test.
type Scope struct {
	t       testing.TB
	Session browser.Session
	BaseURL string
}

// New acquires a session for t and releases it in t.Cleanup, which runs on
// pass, failure and panic alike.
func New(t testing.TB, cfg browser.Config, baseURL string) *Scope {
	return NewWith(t, browser.Acquire, cfg, baseURL)
}

// NewWith is New with an explicit Acquirer.
func NewWith(t testing.TB, acquire Acquirer, cfg browser.Config, baseURL string) *Scope {
	t.Helper()

	s, err := acquire(cfg)
	if err != nil {
		t.Fatalf("failed to acquire browser: %v", err)
	}
	t.Cleanup(func() {
		if err := browser.Release(s); err != nil {
			t.Errorf("browser release error: %v", err)
		}
	})

	return &Scope{t: t, Session: s, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Open navigates to path relative to the scope's base URL.
func (s *Scope) Open(path string) {
	s.t.Helper()
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if err := browser.Navigate(s.Session, s.BaseURL+path); err != nil {
		s.t.Fatalf("%v", err)
	}
}

// Title returns the page title.
func (s *Scope) Title() string {
	s.t.Helper()
	title, err := s.Session.Title()
	if err != nil {
		s.t.Fatalf("%v", err)
	}
	return title
}

// Text returns the text of the first element matching sel.
func (s *Scope) Text(sel browser.Selector) string {
	s.t.Helper()
	text, err := browser.Query(s.Session, sel)
	if err != nil {
		s.t.Fatalf("%v", err)
	}
	return text
}

// Attr returns the named attribute of the first element matching sel.
func (s *Scope) Attr(sel browser.Selector, name string) string {
	s.t.Helper()
	v, err := browser.QueryAttribute(s.Session, sel, name)
	if err != nil {
		s.t.Fatalf("%v", err)
	}
	return v
}

// Shared is a session reused sequentially by many tests, acquired on the
// first Borrow and released by Close. Borrowers are serialized, so
// parallel tests wait rather than share the browser concurrently.
type Shared struct {
	cfg     browser.Config
	acquire Acquirer

	use sync.Mutex // held by the borrowing test

	mu      sync.Mutex
	session browser.Session
	err     error
	closed  bool
}

// NewShared returns a Shared that launches with cfg on first use.
func NewShared(cfg browser.Config) *Shared {
	return NewSharedWith(browser.Acquire, cfg)
}

// NewSharedWith is NewShared with an explicit Acquirer.
func NewSharedWith(acquire Acquirer, cfg browser.Config) *Shared {
	return &Shared{cfg: cfg, acquire: acquire}
}

// Borrow hands the shared session to t until t finishes. A failed launch
// fails every borrower without retrying.
func (sh *Shared) Borrow(t testing.TB) browser.Session {
	t.Helper()

	sh.use.Lock()
	t.Cleanup(sh.use.Unlock)

	s, err := sh.get()
	if err != nil {
		t.Fatalf("failed to acquire shared browser: %v", err)
	}
	return s
}

func (sh *Shared) get() (browser.Session, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.closed {
		return nil, browser.ErrSessionReleased
	}
	if sh.session == nil && sh.err == nil {
		sh.session, sh.err = sh.acquire(sh.cfg)
	}
	return sh.session, sh.err
}

// Close releases the shared session if one was acquired. Later calls are no-ops.
func (sh *Shared) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.closed {
		return nil
	}
	sh.closed = true
	if sh.session == nil {
		return nil
	}
	return browser.Release(sh.session)
}
