package fetcher

import (
	"fmt"
	"time"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

// defaultUserAgent looks like a desktop browser; many sites serve bot user
// agents a stripped or blocked page.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ContentFetchConfig controls direct page fetches.
type ContentFetchConfig struct {
	// Timeout bounds a single request when the caller does not pass one.
	Timeout time.Duration

	// MaxBodySize caps the bytes read from a response, whatever Content-Length says.
	MaxBodySize int64

	// MaxRedirects bounds the redirect chain. Every hop is validated again.
	MaxRedirects int

	// DenyPrivateIPs refuses hosts resolving to private, loopback or
	// link-local addresses. Tests against httptest servers turn it off.
	DenyPrivateIPs bool

	UserAgent string
}

// DefaultConfig returns the settings used when no environment overrides exist.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Timeout:        30 * time.Second,
		MaxBodySize:    10 << 20,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      defaultUserAgent,
	}
}

const (
	minBodySize = 1 << 10
	maxBodySize = 100 << 20
)

// Validate checks Timeout (1ms to 10m), MaxBodySize (1KiB to 100MiB) and
// MaxRedirects (0 to 10).
func (c *ContentFetchConfig) Validate() error {
	if err := pkgconfig.ValidateDurationRange(c.Timeout, time.Millisecond, 10*time.Minute); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	switch {
	case c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize:
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	case c.MaxRedirects < 0 || c.MaxRedirects > 10:
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	case c.UserAgent == "":
		return fmt.Errorf("user agent must not be empty")
	}
	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Unset or unparsable variables keep their default; the result is validated.
//
// Environment variables:
//   - SUMMARIZE_FETCH_TIMEOUT: duration string, e.g. "30s"
//   - SUMMARIZE_FETCH_MAX_BODY_SIZE: integer in bytes
//   - SUMMARIZE_FETCH_MAX_REDIRECTS: integer
//   - SUMMARIZE_FETCH_DENY_PRIVATE_IPS: "true" or "false"
//   - SUMMARIZE_FETCH_USER_AGENT: string
func LoadConfigFromEnv(env pkgconfig.Env) (ContentFetchConfig, error) {
	cfg := DefaultConfig()

	cfg.Timeout = env.Duration("SUMMARIZE_FETCH_TIMEOUT", cfg.Timeout)
	cfg.MaxBodySize = int64(env.Int("SUMMARIZE_FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize)))
	cfg.MaxRedirects = env.Int("SUMMARIZE_FETCH_MAX_REDIRECTS", cfg.MaxRedirects)
	cfg.DenyPrivateIPs = env.Bool("SUMMARIZE_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.UserAgent = env.String("SUMMARIZE_FETCH_USER_AGENT", cfg.UserAgent)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
