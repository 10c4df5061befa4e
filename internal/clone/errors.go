package clone

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("could not fetch page")
	// ErrInvalidURL is returned for anything but an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid page url")
	// ErrInline wraps failures of the critical-CSS inlining step.
	ErrInline = errors.New("could not inline page styles")
)

// FetchError describes a failed page download. StatusCode is zero when no
// response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// blocked reports whether the site refused a plain HTTP client in a way a
// real browser might get through.
func (e *FetchError) blocked() bool {
	switch e.StatusCode {
	case 403, 429, 503:
		return true
	}
	return false
}
