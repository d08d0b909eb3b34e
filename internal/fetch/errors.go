package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies why a fetch failed.
type Kind string

const (
	// KindInvalidURL means the URL could not be parsed or has no scheme/host.
	KindInvalidURL Kind = "invalid-url"
	// KindNetwork is a transport failure: DNS, connection refused, reset.
	KindNetwork Kind = "network"
	// KindTimeout means an attempt or the surrounding context timed out.
	KindTimeout Kind = "timeout"
	// KindHTTP4xx is a non-success status below 500.
	KindHTTP4xx Kind = "http-4xx"
	// KindHTTP5xx is a server error status.
	KindHTTP5xx Kind = "http-5xx"
	// KindDecode means the body arrived but could not be decoded.
	KindDecode Kind = "decode"
)

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Kind       Kind
	StatusCode int
	Attempts   int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s (%s after %d attempt(s)): %s: %v", e.URL, e.Kind, e.Attempts, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s (%s after %d attempt(s)): %s", e.URL, e.Kind, e.Attempts, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of a fetch error, or "" if err is not one.
func KindOf(err error) Kind {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	return ""
}

// StatusKind classifies a non-success HTTP status.
func StatusKind(statusCode int) Kind {
	if statusCode >= http.StatusInternalServerError {
		return KindHTTP5xx
	}
	return KindHTTP4xx
}

// transportKind classifies a transport error as timeout or network.
func transportKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// RetryPredicate decides whether a failed attempt is retried. statusCode is 0
// when no response arrived. It is the only retry policy knob of the fetcher.
type RetryPredicate func(statusCode int, err error) bool

// RetryAlways retries every failure class alike: transport errors, timeouts,
// 4xx and 5xx responses.
func RetryAlways(statusCode int, err error) bool {
	return err != nil || !isSuccess(statusCode)
}

// RetryServerErrors retries transport errors, timeouts and 5xx, never 4xx.
func RetryServerErrors(statusCode int, err error) bool {
	return err != nil || statusCode >= http.StatusInternalServerError
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
