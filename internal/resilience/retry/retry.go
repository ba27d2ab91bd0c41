// Package retry runs an operation again after transient failures, with
// exponential backoff and jitter. Retries wrap whole operations; a single
// request is never retried from inside.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/davisbuilds/summarize/internal/observability/logging"
)

// Config controls WithBackoff.
type Config struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFraction adds up to this fraction of the delay at random (0.0 to 1.0).
	JitterFraction float64

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	ShouldRetry func(err error) bool
}

// CompletionConfig returns the policy for the completion call of one run.
// retries is the number of attempts after the first one.
func CompletionConfig(retries int) Config {
	if retries < 0 {
		retries = 0
	}
	return Config{
		MaxAttempts:    retries + 1,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       8 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, returns an error ShouldRetry rejects,
// or runs out of attempts.
//
// With a single attempt the error of fn is returned as is, so that callers see
// the same message whether or not retries were configured. After several
// attempts the last error is wrapped with the attempt count.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	logger := logging.FromContext(ctx)
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}

		if !shouldRetry(lastErr) {
			if attempt > 1 {
				logger.Warn("non-retryable error, giving up",
					slog.Int("attempt", attempt),
					slog.Any("error", lastErr))
			}
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
		delay = nextDelay(delay, cfg)
	}

	if cfg.MaxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nextDelay(delay time.Duration, cfg Config) time.Duration {
	next := time.Duration(float64(delay) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return addJitter(next, cfg.JitterFraction)
}

// IsRetryable reports transient failures: network timeouts, refused or reset
// connections, and HTTP 408, 429 and 5xx. Context errors are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx answer from an upstream API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	// #nosec G404 -- backoff jitter does not need a cryptographic source.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
