package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// failing returns fn that fails with errs in order, then succeeds.
func failing(errs ...error) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= len(errs) {
			return errs[calls-1]
		}
		return nil
	}, &calls
}

func TestWithBackoff(t *testing.T) {
	serverErr := &HTTPError{StatusCode: 503, Message: "busy"}
	clientErr := &HTTPError{StatusCode: 401, Message: "nope"}

	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "first try succeeds", attempts: 3, wantCalls: 1},
		{name: "succeeds after retries", attempts: 3, errs: []error{serverErr, serverErr}, wantCalls: 3},
		{name: "exhausts attempts", attempts: 2, errs: []error{serverErr, serverErr, serverErr}, wantCalls: 2, wantErr: serverErr},
		{name: "client error is final", attempts: 5, errs: []error{clientErr}, wantCalls: 1, wantErr: clientErr},
		{name: "zero attempts runs once", attempts: 0, errs: []error{serverErr}, wantCalls: 1, wantErr: serverErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, calls := failing(tt.errs...)

			err := WithBackoff(context.Background(), fastConfig(tt.attempts), fn)

			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithBackoff_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	want := &HTTPError{StatusCode: 500, Message: "boom"}
	fn, _ := failing(want)

	err := WithBackoff(context.Background(), CompletionConfig(0), fn)

	assert.Same(t, want, err)
}

func TestWithBackoff_WrapsAfterSeveralAttempts(t *testing.T) {
	fn, _ := failing(&HTTPError{StatusCode: 500, Message: "a"}, &HTTPError{StatusCode: 500, Message: "b"})

	err := WithBackoff(context.Background(), fastConfig(2), fn)

	require.Error(t, err)
	assert.Equal(t, "max retry attempts (2) exceeded: HTTP 500: b", err.Error())
}

func TestWithBackoff_CustomPredicate(t *testing.T) {
	errTimeout := errors.New("request timed out")
	cfg := fastConfig(3)
	cfg.ShouldRetry = func(err error) bool { return errors.Is(err, errTimeout) }
	fn, calls := failing(errTimeout, errTimeout)

	err := WithBackoff(context.Background(), cfg, fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestWithBackoff_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(3)
	cfg.InitialDelay = time.Minute

	calls := 0
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return &HTTPError{StatusCode: 502}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry aborted")
	assert.Equal(t, 1, calls)
}

func TestCompletionConfig(t *testing.T) {
	cfg := CompletionConfig(2)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Nil(t, cfg.ShouldRetry)

	assert.Equal(t, 1, CompletionConfig(-4).MaxAttempts)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"net timeout", timeoutErr{}, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", syscall.ECONNRESET, true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"503 wrapped", fmt.Errorf("firecrawl: %w", &HTTPError{StatusCode: 503}), true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"plain error", errors.New("bad"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	assert.Equal(t, "HTTP 401: nope", (&HTTPError{StatusCode: 401, Message: "nope"}).Error())
}

func TestNextDelay(t *testing.T) {
	cfg := Config{Multiplier: 2.0, MaxDelay: 300 * time.Millisecond}

	assert.Equal(t, 200*time.Millisecond, nextDelay(100*time.Millisecond, cfg))
	assert.Equal(t, 300*time.Millisecond, nextDelay(200*time.Millisecond, cfg))
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, base, addJitter(base, 0))
	for i := 0; i < 50; i++ {
		got := addJitter(base, 0.5)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, 150*time.Millisecond)
	}
}
