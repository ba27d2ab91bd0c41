// Package firecrawl is a client for the Firecrawl managed scraping API, used as
// the fallback when a page cannot be fetched directly.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	"github.com/davisbuilds/summarize/internal/resilience/retry"
)

// ErrTimeout indicates that a scrape did not finish within its deadline.
var ErrTimeout = errors.New("firecrawl request timed out")

// Client calls POST {base}/v1/scrape.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         Config
}

// NewClient creates a Client. httpClient may be nil.
func NewClient(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		httpClient:     httpClient,
		circuitBreaker: circuitbreaker.New(config.CircuitBreaker),
		config:         config,
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int64    `json:"timeout,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Markdown string         `json:"markdown"`
		HTML     *string        `json:"html"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
}

// Scrape fetches url through Firecrawl. A response without usable markdown
// returns (nil, nil): the service answered but had nothing to offer.
//
// Errors are fetch failures for the caller: ErrTimeout, *retry.HTTPError for
// non-2xx answers, circuitbreaker.ErrOpenState, or decoding errors.
func (c *Client) Scrape(ctx context.Context, url string, timeout time.Duration) (*entity.ScrapeResult, error) {
	if timeout <= 0 {
		timeout = c.config.Timeout
	}

	return circuitbreaker.Do(c.circuitBreaker, func() (*entity.ScrapeResult, error) {
		return c.doScrape(ctx, url, timeout)
	})
}

func (c *Client) doScrape(ctx context.Context, url string, timeout time.Duration) (*entity.ScrapeResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
		Timeout:         timeout.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.BaseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("firecrawl request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("read scrape response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var decoded scrapeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode scrape response: %w", err)
	}

	slog.Debug("firecrawl scrape finished",
		slog.String("url", url),
		slog.Bool("success", decoded.Success),
		slog.Duration("duration", time.Since(start)))

	if !decoded.Success || decoded.Data == nil || strings.TrimSpace(decoded.Data.Markdown) == "" {
		return nil, nil
	}

	return &entity.ScrapeResult{
		Markdown: decoded.Data.Markdown,
		HTML:     decoded.Data.HTML,
		Metadata: decoded.Data.Metadata,
	}, nil
}
