// Package metrics provides the Prometheus metrics recorded while resolving a
// URL into content.
//
// All metrics are registered with the Prometheus default registry. The CLI has
// no HTTP endpoint; --metrics-file writes the registry to a file in the text
// exposition format at the end of a run (node_exporter textfile collector style).
//
// Example usage:
//
//	start := time.Now()
//	// ... fetch ...
//	metrics.RecordContentFetch("html", "success", time.Since(start))
//	metrics.RecordBlockedPage("too_short")
package metrics
