package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// SummaryMetricsRecorder receives completion metrics. Tests pass a fake; the
// executors default to the Prometheus recorder.
type SummaryMetricsRecorder interface {
	// RecordLength observes the summary length in runes.
	RecordLength(length int)
	RecordLimitExceeded()
	RecordCompliance(withinLimit bool)
	RecordDuration(duration time.Duration)

	// RecordRequest counts one completion call by outcome
	// (success, timeout, upstream_error, refusal, empty, circuit_open, error).
	RecordRequest(provider, outcome string)
}

// PrometheusSummaryMetrics is the default SummaryMetricsRecorder.
type PrometheusSummaryMetrics struct {
	length     prometheus.Histogram
	exceeded   prometheus.Counter
	compliance prometheus.Gauge
	duration   prometheus.Histogram
	requests   *prometheus.CounterVec
}

var (
	promSummaryMetrics     *PrometheusSummaryMetrics
	promSummaryMetricsOnce sync.Once
)

// register adds c to the default registry, returning the collector that is
// already registered under the same descriptor if there is one.
func register[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// NewPrometheusSummaryMetrics returns the process-wide recorder.
func NewPrometheusSummaryMetrics() *PrometheusSummaryMetrics {
	promSummaryMetricsOnce.Do(func() {
		promSummaryMetrics = &PrometheusSummaryMetrics{
			length: register(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "summarize_summary_length_characters",
				Help:    "Distribution of summary lengths in characters (Unicode runes)",
				Buckets: []float64{250, 500, 900, 1800, 4200, 9000, 17000},
			})),
			exceeded: register(prometheus.NewCounter(prometheus.CounterOpts{
				Name: "summarize_summary_limit_exceeded_total",
				Help: "Total number of summaries longer than the requested length",
			})),
			compliance: register(prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "summarize_summary_limit_compliance",
				Help: "1 when the last summary was within the requested length, 0 otherwise",
			})),
			duration: register(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "summarize_completion_duration_seconds",
				Help:    "Time taken by successful completion calls",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			})),
			requests: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "summarize_completion_requests_total",
				Help: "Completion calls by provider and outcome",
			}, []string{"provider", "outcome"})),
		}
	})
	return promSummaryMetrics
}

func (p *PrometheusSummaryMetrics) RecordLength(length int) {
	p.length.Observe(float64(length))
}

func (p *PrometheusSummaryMetrics) RecordLimitExceeded() {
	p.exceeded.Inc()
}

func (p *PrometheusSummaryMetrics) RecordCompliance(withinLimit bool) {
	value := 0.0
	if withinLimit {
		value = 1.0
	}
	p.compliance.Set(value)
}

func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.duration.Observe(duration.Seconds())
}

func (p *PrometheusSummaryMetrics) RecordRequest(provider, outcome string) {
	p.requests.WithLabelValues(provider, outcome).Inc()
}

// recordSummary logs and records a successful completion. The requested
// length is a soft target: exceeding it is logged, never rejected.
func recordSummary(ctx context.Context, recorder SummaryMetricsRecorder, summary string, target int, duration time.Duration) {
	length := text.CountRunes(summary)
	recorder.RecordLength(length)
	recorder.RecordDuration(duration)

	logger := logging.FromContext(ctx)
	if target <= 0 {
		logger.Info("completion finished",
			slog.Int("summary_length", length),
			slog.Duration("duration", duration))
		return
	}

	withinLimit := length <= target
	recorder.RecordCompliance(withinLimit)
	logger.Info("completion finished",
		slog.Int("summary_length", length),
		slog.Int("target_characters", target),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	if !withinLimit {
		recorder.RecordLimitExceeded()
		logger.Warn("summary exceeds requested length",
			slog.Int("summary_length", length),
			slog.Int("limit", target),
			slog.Int("excess", length-target))
	}
}

// outcomeOf names an error for the request counter.
func outcomeOf(err error) string {
	var (
		upstream *UpstreamError
		refusal  *RefusalError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRequestTimeout):
		return "timeout"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &refusal):
		return "refusal"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case errors.Is(err, circuitbreaker.ErrOpenState):
		return "circuit_open"
	default:
		return "error"
	}
}
