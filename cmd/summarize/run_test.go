package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

type harness struct {
	t          *testing.T
	env        pkgconfig.Env
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	pageURL    string
	openAIHits atomic.Int32
}

// newHarness starts a page server and a fake OpenAI endpoint.
func newHarness(t *testing.T, pageBody string, openAI http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{t: t}

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, pageBody)
	}))
	t.Cleanup(pages.Close)

	if openAI == nil {
		openAI = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected completion request to %s", r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.openAIHits.Add(1)
		openAI(w, r)
	}))
	t.Cleanup(api.Close)

	h.pageURL = pages.URL + "/article"
	h.env = pkgconfig.Env{
		"HOME":                             t.TempDir(),
		"OPENAI_API_KEY":                   "test-key",
		"OPENAI_BASE_URL":                  api.URL + "/v1",
		"SUMMARIZE_FETCH_DENY_PRIVATE_IPS": "false",
	}
	return h
}

func (h *harness) run(args ...string) int {
	return run(context.Background(), args, deps{
		Env:        h.env,
		Stdout:     &h.stdout,
		Stderr:     &h.stderr,
		HTTPClient: &http.Client{},
	})
}

func articlePage(body string) string {
	return "<html><head><title>Test Article</title></head><body><article><p>" + body + "</p></article></body></html>"
}

func completionJSON(message string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"message":` + message + `,"finish_reason":"stop"}]}`
}

const readableParagraph = "Go is an open source programming language that makes it simple to build secure, scalable systems. " +
	"It was designed at Google and is used by many companies for cloud services, command line tools and networking software. "

func TestRun_MissingURL(t *testing.T) {
	h := newHarness(t, "", nil)

	code := h.run()

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "Usage: summarize")
	assert.Empty(t, h.stdout.String())
}

func TestRun_PromptAndExtractOnlyConflict(t *testing.T) {
	h := newHarness(t, "", nil)

	code := h.run("--prompt", "--extract-only", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "--prompt and --extract-only are mutually exclusive")
}

func TestRun_FirecrawlAlwaysRequiresKey(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)

	code := h.run("--firecrawl", "always", "--extract-only", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "--firecrawl always requires FIRECRAWL_API_KEY")
	assert.Empty(t, h.stdout.String())
}

func TestRun_InvalidFlagValue(t *testing.T) {
	h := newHarness(t, "", nil)

	code := h.run("--timeout", "soon", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "unsupported duration")
}

func TestRun_ExtractOnlyPrintsFullContent(t *testing.T) {
	h := newHarness(t, articlePage(strings.Repeat("A", 60_000)), nil)

	code := h.run("--extract-only", "--timeout", "10s", h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	assert.GreaterOrEqual(t, len(strings.TrimSpace(h.stdout.String())), 59_000)
	assert.Equal(t, int32(0), h.openAIHits.Load())
}

func TestRun_FlagsAfterURL(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)

	code := h.run(h.pageURL, "--extract-only")

	require.Equal(t, 0, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "open source programming language")
}

func TestRun_PromptOnly(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)

	code := h.run("--prompt", "--length", "short", h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "about 900 characters")
	assert.Contains(t, h.stdout.String(), "open source programming language")
	assert.Equal(t, int32(0), h.openAIHits.Load())
}

func TestRun_Summary(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON(`{"role":"assistant","content":"Go builds scalable systems."}`))
	})

	code := h.run(h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "Go builds scalable systems.\n", h.stdout.String())
	assert.Equal(t, int32(1), h.openAIHits.Load())
}

func TestRun_JSONOutput(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON(`{"role":"assistant","content":"Short summary."}`))
	})

	code := h.run("--json", h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	var doc map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &doc))
	assert.Equal(t, "Short summary.", doc["summary"])
	assert.Equal(t, h.pageURL, doc["url"])
	assert.Equal(t, "openai/gpt-4o-mini", doc["model"])
	assert.NotEmpty(t, doc["run_id"])
	diagnostics, ok := doc["diagnostics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "html", diagnostics["strategy"])
}

func TestRun_UpstreamError(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "nope")
	})

	code := h.run("--retries", "2", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "OpenAI request failed (401): nope")
	assert.Empty(t, h.stdout.String())
	assert.Equal(t, int32(1), h.openAIHits.Load(), "client errors are not retried")
}

func TestRun_Timeout(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})

	code := h.run("--timeout", "300ms", "--retries", "0", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "OpenAI request timed out")
	assert.Empty(t, h.stdout.String())
}

func TestRun_Refusal(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON(`{"role":"assistant","content":null,"refusal":"no thanks"}`))
	})

	code := h.run("--retries", "2", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "OpenAI refusal: no thanks")
	assert.Empty(t, h.stdout.String())
	assert.Equal(t, int32(1), h.openAIHits.Load(), "refusals are not retried")
}

func TestRun_MissingAPIKey(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)
	delete(h.env, "OPENAI_API_KEY")

	code := h.run(h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "OPENAI_API_KEY")
}

func TestRun_ConfigFile(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("length: 1500\n"), 0o600))

	code := h.run("--config", path, "--prompt", h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "about 1500 characters")
}

func TestRun_InvalidConfigFile(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed\n"), 0o600))

	code := h.run("--config", path, "--extract-only", h.pageURL)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "invalid YAML in config file")
}

func TestRun_MetricsFile(t *testing.T) {
	h := newHarness(t, articlePage(readableParagraph), nil)
	path := filepath.Join(t.TempDir(), "summarize.prom")

	code := h.run("--extract-only", "--metrics-file", path, h.pageURL)

	require.Equal(t, 0, code, h.stderr.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "summarize_runs_total")
	assert.Contains(t, string(data), "summarize_content_fetch_total")
}
