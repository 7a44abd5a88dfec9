package source

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse reports a payload without a usable values field.
	ErrMalformedResponse = errors.New("source: malformed response")
	// ErrFetchFailed reports a transport failure or a non-2xx status.
	ErrFetchFailed = errors.New("source: fetch failed")

	errNoFetcher = errors.New("no fetcher configured")
)

// Error ties a fetch failure to the source it came from. Kind is one of
// ErrMalformedResponse or ErrFetchFailed.
type Error struct {
	Source string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	kind := e.Kind
	if kind == nil {
		kind = ErrFetchFailed
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", kind, e.Source, e.Err)
	}
	return fmt.Sprintf("%v: %s", kind, e.Source)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// StatusError carries the HTTP status of a rejected fetch.
type StatusError struct {
	Code   int
	Status string
}

func (e StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status " + e.Status
	}
	return "unexpected status " + http.StatusText(e.StatusCode())
}

// StatusCode returns the status code, defaulting to 500.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

func malformed(src string, err error) error {
	return &Error{Source: src, Kind: ErrMalformedResponse, Err: err}
}

func failed(src string, err error) error {
	return &Error{Source: src, Kind: ErrFetchFailed, Err: err}
}

// IsMalformed reports whether err is a malformed response failure.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsFetchFailed reports whether err is a transport failure.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}
