package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func testConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		cfg         Config
		name        string
		maxRequests uint32
		timeout     time.Duration
		threshold   float64
		minRequests uint32
	}{
		{ClaudeAPIConfig(), "claude-api", 3, 60 * time.Second, 0.6, 5},
		{OpenAIAPIConfig(), "openai-api", 3, 60 * time.Second, 0.6, 5},
		{FirecrawlAPIConfig(), "firecrawl-api", 2, 120 * time.Second, 0.5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.cfg.Name)
			assert.Equal(t, tt.maxRequests, tt.cfg.MaxRequests)
			assert.Equal(t, tt.timeout, tt.cfg.Timeout)
			assert.Equal(t, tt.threshold, tt.cfg.FailureThreshold)
			assert.Equal(t, tt.minRequests, tt.cfg.MinRequests)
			assert.Nil(t, tt.cfg.IsSuccessful)
		})
	}
}

func TestConfig_ReadyToTrip(t *testing.T) {
	cfg := OpenAIAPIConfig()

	assert.False(t, cfg.readyToTrip(gobreaker.Counts{Requests: 4, TotalFailures: 4}), "below MinRequests")
	assert.False(t, cfg.readyToTrip(gobreaker.Counts{Requests: 5, TotalFailures: 2}))
	assert.True(t, cfg.readyToTrip(gobreaker.Counts{Requests: 5, TotalFailures: 3}))
}

func TestDo_ReturnsTypedResult(t *testing.T) {
	cb := New(testConfig(t.Name()))

	got, err := Do(cb, func() (string, error) { return "summary", nil })

	require.NoError(t, err)
	assert.Equal(t, "summary", got)
	assert.Equal(t, t.Name(), cb.Name())
}

func TestDo_NilPointerResult(t *testing.T) {
	type page struct{}
	cb := New(testConfig(t.Name()))

	got, err := Do(cb, func() (*page, error) { return nil, nil })

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDo_TripsAndRecovers(t *testing.T) {
	cb := New(testConfig(t.Name()))
	calls := 0
	failing := func() (int, error) {
		calls++
		return 0, errUpstream
	}

	for i := 0; i < 2; i++ {
		_, err := Do(cb, failing)
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := Do(cb, failing)
	assert.ErrorIs(t, err, ErrOpenState)
	assert.Equal(t, 2, calls, "open circuit must not call through")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

	got, err := Do(cb, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestExecute_IsSuccessfulIgnoresClientErrors(t *testing.T) {
	errBadRequest := errors.New("400 bad request")
	cfg := testConfig(t.Name())
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errBadRequest)
	}
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errBadRequest })
		assert.ErrorIs(t, err, errBadRequest)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
