package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Content pipeline metrics track how each URL was resolved.
var (
	// ContentFetchTotal counts finished link fetches by winning strategy and outcome.
	ContentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_content_fetch_total",
			Help: "Total number of link content fetches",
		},
		[]string{"strategy", "outcome"},
	)

	// ContentFetchDuration measures the whole link fetch, all strategies included.
	ContentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarize_content_fetch_duration_seconds",
			Help:    "Time taken to resolve a link into content",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"strategy"},
	)

	// ContentCharacters records the size of resolved content in runes.
	ContentCharacters = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarize_content_characters",
			Help:    "Size of resolved content in characters",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
	)

	// BlockedPagesTotal counts direct HTML responses classified as blocked.
	BlockedPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_blocked_pages_total",
			Help: "Total number of fetched pages classified as blocked",
		},
		[]string{"reason"},
	)

	// FirecrawlRequestsTotal counts managed scraping attempts by outcome
	// (used, empty, error).
	FirecrawlRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_firecrawl_requests_total",
			Help: "Total number of Firecrawl scrape attempts",
		},
		[]string{"outcome"},
	)

	// MirrorAttemptsTotal counts Nitter mirror fetches by outcome.
	MirrorAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_mirror_attempts_total",
			Help: "Total number of mirror fetch attempts",
		},
		[]string{"outcome"},
	)

	// TranscriptAttemptsTotal counts transcript provider attempts.
	TranscriptAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_transcript_attempts_total",
			Help: "Total number of transcript provider attempts",
		},
		[]string{"provider", "outcome"},
	)

	// RunsTotal counts CLI runs by mode (summary, extract, prompt) and outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_runs_total",
			Help: "Total number of summarize runs",
		},
		[]string{"mode", "outcome"},
	)

	// ContentTruncatedTotal counts prompts whose content was clipped to the budget.
	ContentTruncatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarize_content_truncated_total",
			Help: "Total number of prompts built from clipped content",
		},
	)

	// CompletionAttemptsTotal counts completion attempts made by the retry loop.
	CompletionAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarize_completion_attempts_total",
			Help: "Total number of completion attempts, retries included",
		},
	)
)
