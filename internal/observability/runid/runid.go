// Package runid identifies a single summarize invocation so that every log line
// and metric of one run can be correlated.
package runid

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// RunIDKey is the context key for storing run IDs.
const RunIDKey contextKey = "run_id"

// New generates a new run ID (UUID v4).
func New() string {
	return uuid.New().String()
}

// FromContext retrieves the run ID from the context.
// Returns an empty string if no run ID is found.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// Ensure returns ctx unchanged if it already carries a run ID, otherwise a
// child context with a fresh one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return WithRunID(ctx, id), id
}
