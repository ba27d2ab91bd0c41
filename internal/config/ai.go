package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

// Provider identifies the chat-completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultModel is used when neither --model, SUMMARIZE_MODEL nor the config file set one.
const DefaultModel = "openai/gpt-4o-mini"

// ModelSpec is a parsed "<provider>/<model>" identifier.
type ModelSpec struct {
	Provider Provider
	Model    string
}

func (m ModelSpec) String() string {
	return string(m.Provider) + "/" + m.Model
}

// ParseModelSpec parses ids such as "openai/gpt-4o-mini" or "anthropic/claude-sonnet-4-5".
// A bare model name is assumed to be OpenAI unless it starts with "claude".
func ParseModelSpec(raw string) (ModelSpec, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ModelSpec{}, fmt.Errorf("%w: empty model id", ErrInvalidSetting)
	}

	provider, model, found := strings.Cut(value, "/")
	if !found {
		model = value
		provider = string(ProviderOpenAI)
		if strings.HasPrefix(strings.ToLower(model), "claude") {
			provider = string(ProviderAnthropic)
		}
	}

	switch Provider(strings.ToLower(provider)) {
	case ProviderOpenAI:
		return ModelSpec{Provider: ProviderOpenAI, Model: model}, nil
	case ProviderAnthropic:
		return ModelSpec{Provider: ProviderAnthropic, Model: model}, nil
	}
	return ModelSpec{}, fmt.Errorf("%w: unsupported model provider %q in %q", ErrInvalidSetting, provider, raw)
}

// AIConfig holds credentials and endpoints for the summarization call.
type AIConfig struct {
	Model ModelSpec

	OpenAIAPIKey  string
	OpenAIBaseURL string

	AnthropicAPIKey  string
	AnthropicBaseURL string

	// CircuitBreaker for completion calls.
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig for completion API resilience.
type CircuitBreakerConfig struct {
	// MaxRequests in half-open state.
	MaxRequests uint32

	// Interval for clearing failure counts.
	Interval time.Duration

	// Timeout before transitioning from open to half-open.
	Timeout time.Duration

	// FailureThreshold ratio to trip circuit (0.0 to 1.0).
	FailureThreshold float64

	// MinRequests before calculating failure ratio.
	MinRequests uint32
}

// LoadAIConfig reads the completion settings from env. modelOverride (from --model
// or the config file) wins over SUMMARIZE_MODEL.
func LoadAIConfig(env pkgconfig.Env, modelOverride string) (*AIConfig, error) {
	modelID := modelOverride
	if modelID == "" {
		modelID = env.String("SUMMARIZE_MODEL", DefaultModel)
	}
	model, err := ParseModelSpec(modelID)
	if err != nil {
		return nil, err
	}

	cfg := &AIConfig{
		Model:            model,
		OpenAIAPIKey:     env.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    env.String("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AnthropicAPIKey:  env.String("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: env.String("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      uint32(env.Int("SUMMARIZE_CB_MAX_REQUESTS", 3)),
			Interval:         env.Duration("SUMMARIZE_CB_INTERVAL", 30*time.Second),
			Timeout:          env.Duration("SUMMARIZE_CB_TIMEOUT", 60*time.Second),
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness. API keys are checked at call time
// (RequireAPIKey) so that --extract-only works without credentials.
func (c *AIConfig) Validate() error {
	if c.Model.Model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		return fmt.Errorf("SUMMARIZE_CB_MAX_REQUESTS must be positive")
	}
	if err := pkgconfig.ValidatePositiveDuration(c.CircuitBreaker.Interval); err != nil {
		return fmt.Errorf("SUMMARIZE_CB_INTERVAL: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.CircuitBreaker.Timeout); err != nil {
		return fmt.Errorf("SUMMARIZE_CB_TIMEOUT: %w", err)
	}
	return nil
}

// RequireAPIKey returns the key for the selected provider or a descriptive error.
func (c *AIConfig) RequireAPIKey() (string, error) {
	switch c.Model.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return "", fmt.Errorf("%w: missing ANTHROPIC_API_KEY for model %s", ErrInvalidSetting, c.Model)
		}
		return c.AnthropicAPIKey, nil
	default:
		if c.OpenAIAPIKey == "" {
			return "", fmt.Errorf("%w: missing OPENAI_API_KEY for model %s", ErrInvalidSetting, c.Model)
		}
		return c.OpenAIAPIKey, nil
	}
}
