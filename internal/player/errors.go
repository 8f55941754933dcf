package player

import (
	"errors"
	"fmt"

	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/source"
)

// ErrorKind classifies a failure surfaced through an error event
type ErrorKind string

const (
	// ErrorUnsupportedSource means no backend accepts the URL
	ErrorUnsupportedSource ErrorKind = "unsupported_source"
	// ErrorBackendLoad means the backend could not initialise the media: bad id, missing track, unreachable file
	ErrorBackendLoad ErrorKind = "backend_load"
	// ErrorPlayback means the media failed after it had loaded
	ErrorPlayback ErrorKind = "playback"
)

var (
	// ErrUnsupportedSource matches every Error of kind ErrorUnsupportedSource
	ErrUnsupportedSource = source.ErrUnsupportedSource
	// ErrNotReady is returned by control calls that need a mounted source when there is none
	ErrNotReady = errors.New("no source mounted")
	// ErrClosed is returned by every call made after Close
	ErrClosed = errors.New("player closed")
)

// Error is the error carried by error events
type Error struct {
	Kind    ErrorKind
	Backend source.Kind
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Backend, e.URL)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Backend, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnsupportedSource) work for unsupported source errors that wrap a more specific cause
func (e *Error) Is(target error) bool {
	return target == ErrUnsupportedSource && e.Kind == ErrorUnsupportedSource
}

// ErrorKindOf returns the kind of the first *Error in err's chain, or "" if there is none
func ErrorKindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func newError(kind ErrorKind, backend source.Kind, rawURL string, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		// Keep the kind decided closer to the failure, but fill in what it did not know
		out := *perr
		if out.Backend == "" {
			out.Backend = backend
		}
		if out.URL == "" {
			out.URL = rawURL
		}
		return &out
	}
	return &Error{Kind: kind, Backend: backend, URL: rawURL, Err: err}
}

// lookupError wraps a failed metadata lookup for what, saying so when the service reports it does not exist
func lookupError(what string, err error) error {
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.NotFound() {
		return fmt.Errorf("%s does not exist: %w", what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
