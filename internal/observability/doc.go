// Package observability groups the logging, metrics and tracing helpers used by
// the summarize pipeline.
//
// Subpackages:
//   - logging: slog loggers with run id and context propagation
//   - runid: per-invocation identifiers
//   - metrics: Prometheus counters and histograms, exported to a textfile
//   - tracing: OpenTelemetry tracer and span helpers
package observability
