// Package circuitbreaker guards calls to paid external APIs (chat completion,
// managed scraping) with github.com/sony/gobreaker.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpenState is returned while the circuit is open.
var ErrOpenState = gobreaker.ErrOpenState

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the breaker in logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration

	// FailureThreshold is the failure ratio (0.0 to 1.0) that trips the circuit.
	FailureThreshold float64

	// MinRequests is the number of calls needed before the ratio is evaluated.
	MinRequests uint32

	// IsSuccessful reports errors that must not count as failures, such as a
	// 4xx caused by the request itself. Nil counts every error.
	IsSuccessful func(err error) bool
}

// ClaudeAPIConfig returns the breaker settings for Anthropic messages calls.
func ClaudeAPIConfig() Config {
	return completionConfig("claude-api")
}

// OpenAIAPIConfig returns the breaker settings for OpenAI chat completion calls.
func OpenAIAPIConfig() Config {
	return completionConfig("openai-api")
}

func completionConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// FirecrawlAPIConfig returns the breaker settings for the managed scraping
// service. A scrape is slow and billed, so the breaker opens on a lower
// failure count.
func FirecrawlAPIConfig() Config {
	return Config{
		Name:             "firecrawl-api",
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

// readyToTrip returns the gobreaker trip predicate for cfg.
func (cfg Config) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cfg.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker. State changes are logged at warn level.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  cfg.readyToTrip,
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the breaker. While the circuit is open it returns
// ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// Do is Execute with a typed result.
//
// Example:
//
//	summary, err := circuitbreaker.Do(cb, func() (string, error) {
//	    return complete(ctx, prompt)
//	})
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	typed, _ := result.(T)
	return typed, err
}

// State returns the current state of the breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
