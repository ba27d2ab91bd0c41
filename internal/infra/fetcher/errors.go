package fetcher

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by HTMLFetcher. All of them are fetch failures: the
// link preview client records them and moves on to the next strategy.
var (
	// ErrInvalidURL indicates that the URL is malformed or uses an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates that the URL resolves to a private, loopback or
	// link-local address and private access is denied.
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates that the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates that the response body exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates that the request did not finish within its deadline.
	ErrTimeout = errors.New("request timeout")
)

// HTTPStatusError is returned for non-2xx responses.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}
