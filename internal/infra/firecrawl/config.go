package firecrawl

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

// DefaultBaseURL is the hosted Firecrawl API.
const DefaultBaseURL = "https://api.firecrawl.dev"

// Config holds the Firecrawl client settings.
type Config struct {
	// APIKey is sent as a bearer token. An empty key means the capability is absent.
	APIKey string

	// BaseURL is the API root, without the /v1 suffix.
	BaseURL string

	// Timeout bounds a scrape when the caller does not pass one.
	// Default: 60s
	Timeout time.Duration

	// MaxBodySize limits the JSON response size in bytes.
	// Default: 20MB
	MaxBodySize int64

	CircuitBreaker circuitbreaker.Config
}

// DefaultConfig returns the default Firecrawl configuration without a key.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        60 * time.Second,
		MaxBodySize:    20 * 1024 * 1024,
		CircuitBreaker: circuitbreaker.FirecrawlAPIConfig(),
	}
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Validate checks the configuration. It does not require an API key.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if c.MaxBodySize < 1024 {
		return fmt.Errorf("max body size must be at least 1024 bytes, got %d", c.MaxBodySize)
	}
	return nil
}

// LoadConfigFromEnv reads FIRECRAWL_API_KEY, FIRECRAWL_BASE_URL and
// FIRECRAWL_TIMEOUT on top of the defaults.
func LoadConfigFromEnv(env pkgconfig.Env) (Config, error) {
	cfg := DefaultConfig()
	cfg.APIKey = env.String("FIRECRAWL_API_KEY", "")
	cfg.BaseURL = strings.TrimRight(env.String("FIRECRAWL_BASE_URL", cfg.BaseURL), "/")
	cfg.Timeout = env.Duration("FIRECRAWL_TIMEOUT", cfg.Timeout)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid Firecrawl configuration: %w", err)
	}
	return cfg, nil
}
