package fetcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davisbuilds/summarize/internal/infra/fetcher"
	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.True(t, cfg.DenyPrivateIPs, "private IPs must be denied by default")
	assert.NotEmpty(t, cfg.UserAgent)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fetcher.ContentFetchConfig)
	}{
		{name: "zero timeout", mutate: func(c *fetcher.ContentFetchConfig) { c.Timeout = 0 }},
		{name: "timeout too long", mutate: func(c *fetcher.ContentFetchConfig) { c.Timeout = time.Hour }},
		{name: "body too small", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxBodySize = 512 }},
		{name: "body too large", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxBodySize = 200 * 1024 * 1024 }},
		{name: "negative redirects", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxRedirects = -1 }},
		{name: "too many redirects", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxRedirects = 11 }},
		{name: "empty user agent", mutate: func(c *fetcher.ContentFetchConfig) { c.UserAgent = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := fetcher.LoadConfigFromEnv(pkgconfig.Env{})
	require.NoError(t, err)
	assert.Equal(t, fetcher.DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	env := pkgconfig.Env{
		"SUMMARIZE_FETCH_TIMEOUT":          "5s",
		"SUMMARIZE_FETCH_MAX_BODY_SIZE":    "2048",
		"SUMMARIZE_FETCH_MAX_REDIRECTS":    "2",
		"SUMMARIZE_FETCH_DENY_PRIVATE_IPS": "false",
		"SUMMARIZE_FETCH_USER_AGENT":       "summarize-test/1.0",
	}

	cfg, err := fetcher.LoadConfigFromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, int64(2048), cfg.MaxBodySize)
	assert.Equal(t, 2, cfg.MaxRedirects)
	assert.False(t, cfg.DenyPrivateIPs)
	assert.Equal(t, "summarize-test/1.0", cfg.UserAgent)
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	env := pkgconfig.Env{
		"SUMMARIZE_FETCH_TIMEOUT":       "soon",
		"SUMMARIZE_FETCH_MAX_REDIRECTS": "many",
	}

	cfg, err := fetcher.LoadConfigFromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRedirects)
}

func TestLoadConfigFromEnv_InvalidValidation(t *testing.T) {
	_, err := fetcher.LoadConfigFromEnv(pkgconfig.Env{"SUMMARIZE_FETCH_MAX_REDIRECTS": "50"})
	assert.Error(t, err)
}

func TestLoadBlockHeuristics(t *testing.T) {
	h := fetcher.LoadBlockHeuristics(pkgconfig.Env{
		"SUMMARIZE_BLOCKED_MIN_TEXT":           "50",
		"SUMMARIZE_BLOCKED_SIGNATURES":         "Paywall Ahead, subscribe to read",
		"SUMMARIZE_BLOCKED_SIGNATURE_MAX_TEXT": "0",
	})

	assert.Equal(t, 50, h.MinTextLength)
	assert.Equal(t, 0, h.MaxSignatureTextLength)
	assert.Equal(t, 3000, fetcher.DefaultBlockHeuristics().MaxSignatureTextLength)
	assert.Contains(t, h.Signatures, "paywall ahead")
	assert.Contains(t, h.Signatures, "subscribe to read")
	assert.Greater(t, len(h.Signatures), 2)
}
