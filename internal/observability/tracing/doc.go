// Package tracing provides the OpenTelemetry tracer for the summarize pipeline.
//
// No exporter is installed by default, so spans are no-ops unless the process
// (or a test) sets a tracer provider with otel.SetTracerProvider.
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "linkpreview.fetch",
//	    attribute.String("url", url))
//	defer span.End()
package tracing
