// Package linkpreview turns one URL into text. It chooses between a media
// transcript, the page's own HTML, mirror hosts for tweets, and a managed
// scraping service, and records which path produced the content.
package linkpreview

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/infra/fetcher"
	"github.com/davisbuilds/summarize/internal/infra/nitter"
	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/metrics"
	"github.com/davisbuilds/summarize/internal/observability/tracing"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// DefaultTimeout bounds each network step when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// HTMLFetcher performs one direct page fetch.
type HTMLFetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*fetcher.Page, error)
}

// Scraper is the managed scraping capability. A nil result with a nil error
// means the service had nothing usable for the URL.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string, timeout time.Duration) (*entity.ScrapeResult, error)
}

// Deps are the collaborators of a Client. Only HTML is required.
type Deps struct {
	HTML HTMLFetcher

	// Scraper is nil when no scraping credential is configured.
	Scraper Scraper

	// Transcripts is the provider chain for media URLs. Nil disables the
	// transcript path.
	Transcripts *transcript.Chain

	// ResourceKey derives ProviderContext.ResourceKey from the URL.
	ResourceKey func(rawURL string) *string

	// HTTPClient and ApifyToken are handed to transcript providers.
	HTTPClient *http.Client
	ApifyToken string

	// Heuristics classify fetched pages as blocked. Zero value means
	// fetcher.DefaultBlockHeuristics.
	Heuristics fetcher.BlockHeuristics

	// Mirrors is the rotation used for tweet URLs. Nil means the default hosts.
	Mirrors *nitter.Rotation

	// MirrorLimiter paces mirror requests. Nil means one request per 250ms.
	MirrorLimiter *rate.Limiter

	// MaxMirrorAttempts caps mirror fetches per call. Zero means 3.
	MaxMirrorAttempts int
}

// Options are the per-call settings.
type Options struct {
	Timeout    time.Duration
	Firecrawl  config.FirecrawlMode
	Markdown   config.MarkdownMode
	Preprocess config.PreprocessMode
	Transcript config.TranscriptMode
}

// OptionsFromSettings maps resolved run settings onto fetch options.
func OptionsFromSettings(s config.ResolvedRunSettings) Options {
	return Options{
		Timeout:    s.Timeout,
		Firecrawl:  s.Firecrawl,
		Markdown:   s.Markdown,
		Preprocess: s.Preprocess,
		Transcript: s.Transcript,
	}
}

// Client fetches link content. It is safe for concurrent use; every call owns
// its own diagnostics.
type Client struct {
	deps Deps
}

// NewClient creates a Client, filling in defaults for optional dependencies.
func NewClient(deps Deps) *Client {
	if deps.Heuristics.MinTextLength == 0 && len(deps.Heuristics.Signatures) == 0 {
		deps.Heuristics = fetcher.DefaultBlockHeuristics()
	}
	if deps.Mirrors == nil {
		deps.Mirrors = nitter.NewRotation(nil)
	}
	if deps.MirrorLimiter == nil {
		deps.MirrorLimiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)
	}
	if deps.MaxMirrorAttempts <= 0 {
		deps.MaxMirrorAttempts = 3
	}
	return &Client{deps: deps}
}

// call is the state of one FetchLinkContent invocation.
type call struct {
	url     string
	opts    Options
	diag    entity.ContentFetchDiagnostics
	logger  *slog.Logger
	page    *fetcher.Page
	pageErr error
	fetched bool
}

// FetchLinkContent resolves rawURL into content.
//
// Firecrawl modes:
//   - off: direct HTML only, strategy "html" even when the page looks blocked.
//   - auto: direct HTML; when blocked or failed, mirrors (tweets only), then
//     Firecrawl, then the unusable HTML as a last resort.
//   - always: Firecrawl only, strategy "firecrawl". Without a Scraper a
//     *ConfigError is returned before any network call.
//
// URLs recognised by a transcript provider are resolved through the chain
// first; the page HTML is fetched once to seed the provider context.
//
// Only *ConfigError, ErrContentUnavailable and URL validation errors are
// returned. Fetch failures and blocked pages are reflected in diagnostics.
func (c *Client) FetchLinkContent(ctx context.Context, rawURL string, opts Options) (*entity.ContentFetchResult, error) {
	if err := entity.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if opts.Firecrawl == "" {
		opts.Firecrawl = config.FirecrawlAuto
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Firecrawl == config.FirecrawlAlways && c.deps.Scraper == nil {
		return nil, &ConfigError{Setting: "firecrawl", Message: "mode \"always\" requires a Firecrawl API key"}
	}

	ctx, span := tracing.StartSpan(ctx, "linkpreview.fetch",
		attribute.String("url", rawURL),
		attribute.String("firecrawl.mode", string(opts.Firecrawl)))
	defer span.End()

	start := time.Now()
	st := &call{
		url:    rawURL,
		opts:   opts,
		logger: logging.FromContext(ctx).With(slog.String("url", rawURL)),
		diag: entity.ContentFetchDiagnostics{
			Strategy:   entity.StrategyHTML,
			Transcript: entity.TranscriptDiagnostics{AttemptedProviders: []entity.ProviderID{}},
		},
	}

	result, err := c.resolve(ctx, st)
	if err != nil {
		metrics.RecordContentFetch("none", "failure", time.Since(start))
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.RecordContentFetch(string(result.Diagnostics.Strategy), "success", time.Since(start))
	metrics.RecordContentSize(text.CountRunes(result.Content))
	span.SetAttributes(
		attribute.String("strategy", string(result.Diagnostics.Strategy)),
		attribute.Int("content.characters", text.CountRunes(result.Content)))
	st.logger.Info("link content resolved",
		slog.String("strategy", string(result.Diagnostics.Strategy)),
		slog.Bool("firecrawl_used", result.Diagnostics.Firecrawl.Used),
		slog.Bool("transcript", result.Diagnostics.Transcript.TextProvided),
		slog.Int("characters", text.CountRunes(result.Content)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (c *Client) resolve(ctx context.Context, st *call) (*entity.ContentFetchResult, error) {
	if result := c.transcriptPath(ctx, st); result != nil {
		return result, nil
	}

	if st.opts.Firecrawl == config.FirecrawlAlways {
		if result := c.firecrawlPath(ctx, st); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("%w: firecrawl returned no content for %s", ErrContentUnavailable, st.url)
	}

	page, err := c.fetchPage(ctx, st)
	if err == nil {
		blocked, reason := c.detectBlocked(page)
		if !blocked {
			return c.pageResult(st, page, st.url), nil
		}
		metrics.RecordBlockedPage(reason)
		st.logger.Warn("page looks blocked", slog.String("reason", reason))
		st.appendFirecrawlNote("html blocked (" + reason + ")")
	} else {
		st.logger.Warn("direct fetch failed", slog.Any("error", err))
		st.appendFirecrawlNote("html failed: " + err.Error())
	}

	if nitter.IsStatusURL(st.url) {
		if result := c.mirrorPath(ctx, st); result != nil {
			return result, nil
		}
	}

	if st.opts.Firecrawl == config.FirecrawlAuto {
		if c.deps.Scraper == nil {
			metrics.RecordFirecrawl("not_configured")
			st.appendFirecrawlNote("firecrawl not configured")
		} else if result := c.firecrawlPath(ctx, st); result != nil {
			return result, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentUnavailable, st.url, err)
	}
	st.diag.Strategy = entity.StrategyHTML
	return c.pageResult(st, page, st.url), nil
}

// fetchPage fetches the page at most once per call.
func (c *Client) fetchPage(ctx context.Context, st *call) (*fetcher.Page, error) {
	if !st.fetched {
		st.page, st.pageErr = c.deps.HTML.Fetch(ctx, st.url, st.opts.Timeout)
		st.fetched = true
	}
	return st.page, st.pageErr
}

// transcriptPath returns a result when a recognised media URL yields
// transcript text. Otherwise the transcript diagnostics are kept and the
// caller continues with the content strategies.
func (c *Client) transcriptPath(ctx context.Context, st *call) *entity.ContentFetchResult {
	if c.deps.Transcripts == nil {
		return nil
	}
	pctx := entity.ProviderContext{URL: st.url}
	if c.deps.ResourceKey != nil {
		pctx.ResourceKey = c.deps.ResourceKey(st.url)
	}
	if !c.deps.Transcripts.Recognizes(pctx) {
		return nil
	}

	// Seeding HTML is not a content fetch, but "always" never touches the
	// page directly.
	if st.opts.Firecrawl != config.FirecrawlAlways {
		if page, err := c.fetchPage(ctx, st); err == nil {
			pctx.HTML = &page.HTML
		} else {
			st.logger.Debug("transcript seed fetch failed", slog.Any("error", err))
		}
	}

	res, diag := c.deps.Transcripts.Resolve(ctx, pctx, transcript.FetchOptions{
		HTTPClient: c.deps.HTTPClient,
		ApifyToken: c.deps.ApifyToken,
		Mode:       st.opts.Transcript,
		Timeout:    st.opts.Timeout,
	})
	st.diag.Transcript = diag
	if res.Text == nil {
		return nil
	}

	result := &entity.ContentFetchResult{
		Content:     c.preprocess(*res.Text, false, st.opts.Preprocess),
		SourceURL:   st.url,
		Diagnostics: st.diag,
	}
	if st.page != nil {
		result.Title = st.page.Title
		result.Description = st.page.Description
		result.SiteName = st.page.SiteName
	}
	result.Diagnostics.Strategy = entity.StrategyHTML
	return result
}

// firecrawlPath calls the scraper once. It returns nil when the scraper
// fails or has nothing usable.
func (c *Client) firecrawlPath(ctx context.Context, st *call) *entity.ContentFetchResult {
	st.diag.Firecrawl.Attempted = true

	scraped, err := c.deps.Scraper.Scrape(ctx, st.url, st.opts.Timeout)
	if err != nil {
		metrics.RecordFirecrawl("error")
		st.logger.Warn("firecrawl scrape failed", slog.Any("error", err))
		st.appendFirecrawlNote("firecrawl failed: " + err.Error())
		return nil
	}
	if scraped == nil || strings.TrimSpace(scraped.Markdown) == "" {
		metrics.RecordFirecrawl("empty")
		st.appendFirecrawlNote("firecrawl returned no content")
		return nil
	}
	metrics.RecordFirecrawl("used")

	content, isMarkdown := c.scrapeContent(scraped, st)
	st.diag.Strategy = entity.StrategyFirecrawl
	st.diag.Firecrawl.Used = true

	return &entity.ContentFetchResult{
		Content:     c.preprocess(content, isMarkdown, st.opts.Preprocess),
		SourceURL:   st.url,
		Title:       metadataString(scraped.Metadata, "title", "ogTitle"),
		Description: metadataString(scraped.Metadata, "description", "ogDescription"),
		SiteName:    metadataString(scraped.Metadata, "ogSiteName", "siteName"),
		Diagnostics: st.diag,
	}
}

// mirrorPath tries mirror hosts for a tweet URL, paced by the limiter.
func (c *Client) mirrorPath(ctx context.Context, st *call) *entity.ContentFetchResult {
	mirrors := c.deps.Mirrors.MirrorURLs(st.url)
	if len(mirrors) > c.deps.MaxMirrorAttempts {
		mirrors = mirrors[:c.deps.MaxMirrorAttempts]
	}

	for _, mirrorURL := range mirrors {
		if err := c.deps.MirrorLimiter.Wait(ctx); err != nil {
			st.logger.Debug("mirror rotation aborted", slog.Any("error", err))
			return nil
		}

		page, err := c.deps.HTML.Fetch(ctx, mirrorURL, st.opts.Timeout)
		if err != nil {
			metrics.RecordMirrorAttempt("error")
			st.logger.Debug("mirror fetch failed", slog.String("mirror", mirrorURL), slog.Any("error", err))
			continue
		}
		if blocked, reason := c.detectBlocked(page); blocked {
			metrics.RecordMirrorAttempt("blocked")
			st.logger.Debug("mirror blocked", slog.String("mirror", mirrorURL), slog.String("reason", reason))
			continue
		}

		metrics.RecordMirrorAttempt("success")
		st.logger.Info("content served by mirror", slog.String("mirror", mirrorURL))
		st.diag.Strategy = entity.StrategyHTML
		return c.pageResult(st, page, mirrorURL)
	}
	return nil
}

func (c *Client) pageResult(st *call, page *fetcher.Page, sourceURL string) *entity.ContentFetchResult {
	content, isMarkdown := c.pageContent(page, st)
	st.diag.Strategy = entity.StrategyHTML
	return &entity.ContentFetchResult{
		Content:     c.preprocess(content, isMarkdown, st.opts.Preprocess),
		SourceURL:   sourceURL,
		Title:       page.Title,
		Description: page.Description,
		SiteName:    page.SiteName,
		Diagnostics: st.diag,
	}
}

// detectBlocked applies the heuristics to the visible text, and the
// signatures alone to the title: challenge pages often only identify
// themselves there.
func (c *Client) detectBlocked(page *fetcher.Page) (bool, string) {
	if page.Title != "" {
		titleOnly := fetcher.BlockHeuristics{Signatures: c.deps.Heuristics.Signatures}
		if blocked, reason := fetcher.DetectBlocked(page.Title, titleOnly); blocked {
			return true, reason
		}
	}
	return fetcher.DetectBlocked(page.VisibleText, c.deps.Heuristics)
}

func (st *call) appendFirecrawlNote(note string) {
	if st.diag.Firecrawl.Notes == "" {
		st.diag.Firecrawl.Notes = note
		return
	}
	st.diag.Firecrawl.Notes += "; " + note
}
