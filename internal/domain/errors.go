package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyURL          = errors.New("empty url")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrInvalidHost       = errors.New("invalid host")
	ErrInvalidPort       = errors.New("invalid port")
	ErrDecodeLimit       = errors.New("percent-decoding did not settle")
)

// ParseError is returned when a raw URL cannot be canonicalized.
// Err is one of the Err* sentinels, optionally wrapped with detail.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse url %q: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedHostError means no host variants can be built for a URL,
// e.g. a single-label name like "localhost". It must not be read as "safe".
type MalformedHostError struct {
	Host string
}

func (e *MalformedHostError) Error() string {
	return fmt.Sprintf("malformed host %q: need at least two labels", e.Host)
}

func parseErr(raw string, err error) error {
	return &ParseError{URL: raw, Err: err}
}
