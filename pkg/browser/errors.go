package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionCreation is returned when a browser cannot be launched or connected.
	ErrSessionCreation = errors.New("browser session creation failed")

	// ErrNavigation matches every *NavigationError.
	ErrNavigation = errors.New("navigation failed")

	// ErrElementNotFound matches every *ElementNotFoundError.
	ErrElementNotFound = errors.New("element not found")

	// ErrSessionReleased is returned by any call on a released session.
	ErrSessionReleased = errors.New("browser session already released")

	// errNoMatch is how a backend reports a lookup that matched nothing.
	// Every other lookup error is a driver failure.
	errNoMatch = errors.New("no element matched")
)

// NavigationError reports a page load that did not complete.
type NavigationError struct {
	URL string
	Err error // driver error, unmodified
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }

// ElementNotFoundError reports a selector with no match within the implicit wait.
type ElementNotFoundError struct {
	Selector Selector
	Err      error // driver error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element matching %s: %v", e.Selector, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

func (e *ElementNotFoundError) Is(target error) bool { return target == ErrElementNotFound }
