package firecrawl_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davisbuilds/summarize/internal/infra/firecrawl"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	"github.com/davisbuilds/summarize/internal/resilience/retry"
	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

func newClient(t *testing.T, baseURL string) *firecrawl.Client {
	t.Helper()
	cfg := firecrawl.DefaultConfig()
	cfg.APIKey = "fc-test"
	cfg.BaseURL = baseURL
	return firecrawl.NewClient(cfg, nil)
}

func TestScrape_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/post", body["url"])
		assert.ElementsMatch(t, []any{"markdown", "html"}, body["formats"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"Hello from Firecrawl","html":"<p>Hello</p>","metadata":{"title":"Firecrawl title"}}}`))
	}))
	defer server.Close()

	result, err := newClient(t, server.URL).Scrape(context.Background(), "https://example.com/post", 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Hello from Firecrawl", result.Markdown)
	require.NotNil(t, result.HTML)
	assert.Equal(t, "<p>Hello</p>", *result.HTML)
	assert.Equal(t, "Firecrawl title", result.Metadata["title"])
}

func TestScrape_NothingUsable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "success false", body: `{"success":false,"error":"blocked"}`},
		{name: "empty markdown", body: `{"success":true,"data":{"markdown":"   "}}`},
		{name: "no data", body: `{"success":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newClient(t, server.URL).Scrape(context.Background(), "https://example.com", time.Second)
			assert.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestScrape_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Scrape(context.Background(), "https://example.com", time.Second)

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusPaymentRequired, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "insufficient credits")
}

func TestScrape_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only notices the client hanging up once the body is consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Scrape(context.Background(), "https://example.com", 20*time.Millisecond)
	assert.ErrorIs(t, err, firecrawl.ErrTimeout)
}

func TestScrape_CircuitOpens(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := firecrawl.DefaultConfig()
	cfg.APIKey = "fc-test"
	cfg.BaseURL = server.URL
	cfg.CircuitBreaker.MinRequests = 2
	cfg.CircuitBreaker.FailureThreshold = 0.5
	client := firecrawl.NewClient(cfg, nil)

	for i := 0; i < 2; i++ {
		_, err := client.Scrape(context.Background(), "https://example.com", time.Second)
		require.Error(t, err)
	}

	_, err := client.Scrape(context.Background(), "https://example.com", time.Second)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestLoadConfigFromEnv(t *testing.T) {
	cfg, err := firecrawl.LoadConfigFromEnv(pkgconfig.Env{})
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
	assert.Equal(t, firecrawl.DefaultBaseURL, cfg.BaseURL)

	cfg, err = firecrawl.LoadConfigFromEnv(pkgconfig.Env{
		"FIRECRAWL_API_KEY":  "fc-123",
		"FIRECRAWL_BASE_URL": "http://localhost:3002/",
		"FIRECRAWL_TIMEOUT":  "15s",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "http://localhost:3002", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)

	_, err = firecrawl.LoadConfigFromEnv(pkgconfig.Env{"FIRECRAWL_BASE_URL": "not a url"})
	assert.Error(t, err)
}
