package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davisbuilds/summarize/internal/resilience/retry"
)

var (
	// ErrRequestTimeout is matched by every *TimeoutError.
	ErrRequestTimeout = errors.New("completion request timed out")

	// ErrEmptyCompletion indicates a 2xx response without any text. It is
	// never turned into empty output.
	ErrEmptyCompletion = errors.New("completion returned no content")

	// ErrMissingAPIKey indicates that the selected provider has no credential.
	ErrMissingAPIKey = errors.New("missing API key")
)

// TimeoutError reports that the per-call deadline fired before the provider
// answered.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %s", e.Provider, e.Timeout)
}

// Is makes errors.Is(err, ErrRequestTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout
}

// Unwrap exposes the context error.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// UpstreamError reports a non-2xx answer. The message embeds the status and
// the response body.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap exposes the status as a *retry.HTTPError so that the shared retry
// predicate can classify it.
func (e *UpstreamError) Unwrap() error {
	return &retry.HTTPError{StatusCode: e.StatusCode, Message: e.Body}
}

// RefusalError reports an explicit refusal by the model.
type RefusalError struct {
	Provider string
	Refusal  string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("%s refusal: %s", e.Provider, e.Refusal)
}

// isCallerFault reports errors that say nothing about the provider's health.
// They must not trip the circuit breaker.
func isCallerFault(err error) bool {
	var refusal *RefusalError
	if errors.As(err, &refusal) {
		return true
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode >= 400 && upstream.StatusCode < 500 &&
			upstream.StatusCode != 408 && upstream.StatusCode != 429
	}
	return errors.Is(err, context.Canceled)
}
