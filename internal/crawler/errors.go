package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSeed is returned by Crawl when the start URL cannot be crawled.
	ErrInvalidSeed = errors.New("invalid start URL")
	// ErrMalformedURL is returned by Normalize for references that cannot be parsed.
	ErrMalformedURL = errors.New("malformed URL")
)

// ErrorKind categorizes a failure recovered during a crawl.
type ErrorKind string

const (
	KindMalformedURL ErrorKind = "malformed_url"
	KindFetchFailure ErrorKind = "fetch_failure"
	KindHTTPError    ErrorKind = "http_error"
	KindParseFailure ErrorKind = "parse_failure"
	KindRunTimeout   ErrorKind = "run_timeout"
	KindCanceled     ErrorKind = "canceled"
)

// Error captures a failure that occurred when visiting or validating a link.
// None of these abort the crawl.
type Error struct {
	Source  URLKey    `json:"source,omitempty"`
	Target  string    `json:"target"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`

	cause error
}

func (e Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Kind, e.Target, e.Message, e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Target, e.Message)
}

func (e Error) Unwrap() error {
	return e.cause
}

func outcomeKind(status int) ErrorKind {
	if status == NoResponse {
		return KindFetchFailure
	}
	return KindHTTPError
}
