// Package summarizer issues the summarization request to a chat-completion
// API (OpenAI or Anthropic) with a per-call deadline, and classifies the
// outcome as success, timeout, upstream error or refusal.
package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
)

// CompleteOptions are the per-call settings.
type CompleteOptions struct {
	// Timeout bounds the whole call. Zero means no deadline beyond ctx.
	Timeout time.Duration

	// MaxOutputTokens is the completion token ceiling. Zero means the provider default.
	MaxOutputTokens int

	// TargetCharacters is the requested summary size, used only for the
	// length compliance metrics. Zero disables the check.
	TargetCharacters int
}

// Completer sends one prompt and returns the completion text.
//
// Implementations never retry: a failed call returns one of *TimeoutError,
// *UpstreamError, *RefusalError, ErrEmptyCompletion or
// circuitbreaker.ErrOpenState (possibly wrapped).
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// Config holds what an executor needs to reach its provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// HTTPClient is used for every request. Nil means a default client.
	HTTPClient *http.Client

	CircuitBreaker circuitbreaker.Config
}

// Validate checks configuration correctness.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.CircuitBreaker.Name == "" {
		return fmt.Errorf("circuit breaker name cannot be empty")
	}
	return nil
}

// New builds the executor for the provider selected in ai.
func New(ai *config.AIConfig, httpClient *http.Client) (Completer, error) {
	key, err := ai.RequireAPIKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	switch ai.Model.Provider {
	case config.ProviderAnthropic:
		cb := breakerConfig(circuitbreaker.ClaudeAPIConfig(), ai.CircuitBreaker)
		return NewClaude(Config{
			APIKey:         key,
			BaseURL:        ai.AnthropicBaseURL,
			Model:          ai.Model.Model,
			HTTPClient:     httpClient,
			CircuitBreaker: cb,
		})
	default:
		cb := breakerConfig(circuitbreaker.OpenAIAPIConfig(), ai.CircuitBreaker)
		return NewOpenAI(Config{
			APIKey:         key,
			BaseURL:        ai.OpenAIBaseURL,
			Model:          ai.Model.Model,
			HTTPClient:     httpClient,
			CircuitBreaker: cb,
		})
	}
}

// breakerConfig overlays the env-tunable breaker settings on a preset and
// keeps caller faults from counting as failures.
func breakerConfig(preset circuitbreaker.Config, tuned config.CircuitBreakerConfig) circuitbreaker.Config {
	if tuned.MaxRequests > 0 {
		preset.MaxRequests = tuned.MaxRequests
	}
	if tuned.Interval > 0 {
		preset.Interval = tuned.Interval
	}
	if tuned.Timeout > 0 {
		preset.Timeout = tuned.Timeout
	}
	if tuned.FailureThreshold > 0 {
		preset.FailureThreshold = tuned.FailureThreshold
	}
	if tuned.MinRequests > 0 {
		preset.MinRequests = tuned.MinRequests
	}
	preset.IsSuccessful = ignoreCallerFaults
	return preset
}

// completionBreaker returns cb, or preset when cb is unnamed. A nil
// IsSuccessful is replaced so that caller faults never trip the breaker.
func completionBreaker(cb, preset circuitbreaker.Config) circuitbreaker.Config {
	if cb.Name == "" {
		return breakerConfig(preset, config.CircuitBreakerConfig{})
	}
	if cb.IsSuccessful == nil {
		cb.IsSuccessful = ignoreCallerFaults
	}
	return cb
}

func ignoreCallerFaults(err error) bool {
	return err == nil || isCallerFault(err)
}

// withDeadline derives the per-call context.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
