package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory page: css selector -> element.
type fakeBackend struct {
	mu        sync.Mutex
	url       string
	pageTitle string
	elements  map[string]*fakeElement
	navErr    error
	findErr   error
	closeErr  error
	closed    int
}

func (f *fakeBackend) navigate(url string) error {
	if f.navErr != nil {
		return f.navErr
	}
	f.url = url
	return nil
}

func (f *fakeBackend) title() (string, error) { return f.pageTitle, nil }

func (f *fakeBackend) find(css string) (Element, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	el, ok := f.elements[css]
	if !ok {
		return nil, fmt.Errorf("%w: timed out", errNoMatch)
	}
	return el, nil
}

func (f *fakeBackend) close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

type fakeElement struct {
	text      string
	attrs     map[string]string
	submitted bool
}

func (e *fakeElement) Text() (string, error)                 { return e.text, nil }
func (e *fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }
func (e *fakeElement) SetAttribute(name, value string) error {
	e.attrs[name] = value
	return nil
}
func (e *fakeElement) Submit() error {
	e.submitted = true
	return nil
}

// useFakeLauncher routes DriverRod to fb for the duration of the test.
func useFakeLauncher(t *testing.T, fb *fakeBackend) {
	t.Helper()
	orig := launchers[DriverRod]
	launchers[DriverRod] = func(Config) (backend, error) { return fb, nil }
	t.Cleanup(func() { launchers[DriverRod] = orig })
}

func newConverterPage() *fakeBackend {
	return &fakeBackend{
		pageTitle: "dimdim converter",
		elements: map[string]*fakeElement{
			"select.from_currency": {attrs: map[string]string{"value": "USD"}},
			`[name="from_amount"]`: {attrs: map[string]string{"value": "1"}},
			".to_amount":           {text: "1", attrs: map[string]string{}},
		},
	}
}

func TestAcquire_NavigateQueryRelease(t *testing.T) {
	fb := newConverterPage()
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	require.NoError(t, Navigate(s, "http://localhost:8000"))
	assert.Equal(t, "http://localhost:8000", fb.url)

	title, err := s.Title()
	require.NoError(t, err)
	assert.Contains(t, title, "dimdim converter")

	from, err := QueryAttribute(s, CSS("select.from_currency"), "value")
	require.NoError(t, err)
	assert.Equal(t, "USD", from)

	amount, err := QueryAttribute(s, Name("from_amount"), "value")
	require.NoError(t, err)
	assert.Equal(t, "1", amount)

	to, err := Query(s, CSS(".to_amount"))
	require.NoError(t, err)
	assert.Equal(t, "1", to)

	require.NoError(t, Release(s))
	assert.Equal(t, 1, fb.closed)
}

func TestAcquire_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine = "safari"

	_, err := Acquire(cfg)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionCreation)
}

func TestAcquire_LaunchFailure(t *testing.T) {
	cause := errors.New("chrome not found")
	orig := launchers[DriverRod]
	launchers[DriverRod] = func(Config) (backend, error) { return nil, cause }
	t.Cleanup(func() { launchers[DriverRod] = orig })

	before := CurrentStats()
	_, err := Acquire(DefaultConfig())
	assert.ErrorIs(t, err, ErrSessionCreation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, CurrentStats())
}

func TestNavigate_Unreachable(t *testing.T) {
	cause := errors.New("net::ERR_CONNECTION_REFUSED")
	fb := newConverterPage()
	fb.navErr = cause
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	defer Release(s)

	err = Navigate(s, "http://localhost:1")
	assert.ErrorIs(t, err, ErrNavigation)
	assert.ErrorIs(t, err, cause)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "http://localhost:1", navErr.URL)
}

func TestQuery_ElementNotFound(t *testing.T) {
	useFakeLauncher(t, newConverterPage())

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	defer Release(s)

	_, err = Query(s, ID("missing"))
	assert.ErrorIs(t, err, ErrElementNotFound)

	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, ID("missing"), notFound.Selector)
	assert.Contains(t, err.Error(), "id=missing")
}

func TestFind_DriverFailureIsNotElementNotFound(t *testing.T) {
	fb := newConverterPage()
	cause := errors.New("websocket: close 1006 (abnormal closure)")
	fb.findErr = cause
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	defer Release(s)

	_, err = Query(s, CSS(".to_amount"))
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrElementNotFound)
	assert.Contains(t, err.Error(), "css=.to_amount")

	fb.findErr = context.Canceled
	_, err = Query(s, CSS(".to_amount"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrElementNotFound)
}

func TestRelease_Idempotent(t *testing.T) {
	fb := newConverterPage()
	useFakeLauncher(t, fb)

	before := CurrentStats()
	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, before.Live()+1, CurrentStats().Live())

	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
	require.NoError(t, Release(s))

	assert.Equal(t, 1, fb.closed)
	assert.Equal(t, before.Live(), CurrentStats().Live())
}

func TestRelease_ConcurrentClosesOnce(t *testing.T) {
	fb := newConverterPage()
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fb.closed)
}

func TestRelease_ErrorIsSticky(t *testing.T) {
	fb := newConverterPage()
	fb.closeErr = errors.New("browser already gone")
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)

	first := s.Release()
	assert.ErrorIs(t, first, fb.closeErr)
	assert.Equal(t, first, s.Release())
	assert.Equal(t, 1, fb.closed)
}

func TestReleasedSession_RejectsCalls(t *testing.T) {
	useFakeLauncher(t, newConverterPage())

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, s.Release())

	assert.ErrorIs(t, s.Navigate("http://localhost:8000"), ErrSessionReleased)
	_, err = s.Title()
	assert.ErrorIs(t, err, ErrSessionReleased)
	_, err = s.Find(CSS("body"))
	assert.ErrorIs(t, err, ErrSessionReleased)
}

// A failing test body must still release through the deferred call.
func TestRelease_OnPanicPath(t *testing.T) {
	fb := newConverterPage()
	useFakeLauncher(t, fb)

	func() {
		defer func() { _ = recover() }()

		s, err := Acquire(DefaultConfig())
		require.NoError(t, err)
		defer Release(s)

		panic("assertion blew up")
	}()

	assert.Equal(t, 1, fb.closed)
}

func TestRelease_Nil(t *testing.T) {
	assert.NoError(t, Release(nil))
}

func TestElement_SetAttributeAndSubmit(t *testing.T) {
	fb := newConverterPage()
	fb.elements["#convert_form"] = &fakeElement{attrs: map[string]string{}}
	useFakeLauncher(t, fb)

	s, err := Acquire(DefaultConfig())
	require.NoError(t, err)
	defer Release(s)

	input, err := s.Find(Name("from_amount"))
	require.NoError(t, err)
	require.NoError(t, input.SetAttribute("value", "2"))

	got, err := QueryAttribute(s, Name("from_amount"), "value")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	form, err := s.Find(ID("convert_form"))
	require.NoError(t, err)
	require.NoError(t, form.Submit())
	assert.True(t, fb.elements["#convert_form"].submitted)
}
