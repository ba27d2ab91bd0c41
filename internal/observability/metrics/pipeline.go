package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordContentFetch records a finished link fetch.
// outcome is "success" or "failure"; strategy is the winning strategy or "none".
func RecordContentFetch(strategy, outcome string, duration time.Duration) {
	ContentFetchTotal.WithLabelValues(strategy, outcome).Inc()
	ContentFetchDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordContentSize records the rune count of resolved content.
func RecordContentSize(characters int) {
	ContentCharacters.Observe(float64(characters))
}

// RecordBlockedPage records a blocked page. Signature reasons are collapsed into
// a single "signature" label to keep cardinality bounded.
func RecordBlockedPage(reason string) {
	if strings.HasPrefix(reason, "signature:") {
		reason = "signature"
	}
	BlockedPagesTotal.WithLabelValues(reason).Inc()
}

// RecordFirecrawl records a Firecrawl attempt outcome (used, empty, error).
func RecordFirecrawl(outcome string) {
	FirecrawlRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordMirrorAttempt records a Nitter mirror fetch outcome (success, blocked, error).
func RecordMirrorAttempt(outcome string) {
	MirrorAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTranscriptAttempt records one provider attempt (text, empty, error).
func RecordTranscriptAttempt(provider, outcome string) {
	TranscriptAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordRun records a finished run. mode is summary, extract or prompt.
func RecordRun(mode, outcome string) {
	RunsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordContentTruncated records a prompt built from clipped content.
func RecordContentTruncated() {
	ContentTruncatedTotal.Inc()
}

// RecordCompletionAttempt records one completion attempt.
func RecordCompletionAttempt() {
	CompletionAttemptsTotal.Inc()
}

// WriteTextfile writes every metric in the default registry to path in the
// Prometheus text format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
