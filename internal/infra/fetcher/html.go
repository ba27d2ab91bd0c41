// Package fetcher implements the direct HTML strategy: one GET per URL, content
// extraction with readability, blocked-page detection and markdown conversion.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Page is a fetched and extracted HTML document.
type Page struct {
	// URL is the requested URL; FinalURL is where redirects ended.
	URL      string
	FinalURL string
	Status   int
	HTML     string

	// Text is the readable article text, or the visible page text when
	// readability finds nothing.
	Text string
	// VisibleText is all text under <body> outside scripts and styles. Blocked
	// detection runs on it.
	VisibleText string
	// ArticleHTML is the readability article markup, used for markdown output.
	ArticleHTML string

	Title       string
	Description string
	SiteName    string
}

// HTMLFetcher performs single, unretried GET requests.
//
// Thread safety: HTMLFetcher is safe for concurrent use.
type HTMLFetcher struct {
	client *http.Client
	config ContentFetchConfig
}

// NewHTMLFetcher creates an HTMLFetcher. When base is non-nil its transport is
// reused (tests pass an httptest client); redirect policy always comes from config.
//
// Example:
//
//	f := NewHTMLFetcher(DefaultConfig(), nil)
//	page, err := f.Fetch(ctx, "https://example.com/article", 10*time.Second)
func NewHTMLFetcher(config ContentFetchConfig, base *http.Client) *HTMLFetcher {
	f := &HTMLFetcher{config: config}

	var transport http.RoundTripper
	if base != nil && base.Transport != nil {
		transport = base.Transport
	} else {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		}
	}

	f.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch downloads rawURL and extracts its content. A timeout of zero uses the
// configured default.
//
// Errors are always fetch failures: ErrInvalidURL, ErrPrivateIP, ErrTimeout,
// ErrBodyTooLarge, ErrTooManyRedirects, *HTTPStatusError or a transport error.
func (f *HTMLFetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error) {
	if err := validateURL(rawURL, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = f.config.Timeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading body exceeded %v", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response size exceeds limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := ExtractPage(string(body), finalURL)
	page.URL = rawURL
	page.Status = resp.StatusCode

	slog.Debug("html fetched",
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Int("text_length", len(page.Text)),
		slog.Duration("duration", time.Since(start)))

	return page, nil
}
