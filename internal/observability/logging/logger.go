package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/davisbuilds/summarize/internal/observability/runid"
)

// Format selects the slog handler.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseLevel maps a LOG_LEVEL value (debug, info, warn, error) to a slog
// level. Blank or unknown values yield fallback.
func ParseLevel(value string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

// New returns a logger writing to w. The CLI passes stderr so that stdout
// only carries the result. Debug JSON records include the source location.
func New(w io.Writer, format Format, level slog.Level) *slog.Logger {
	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))
}

// WithRunID adds the run_id attribute from ctx, if any.
func WithRunID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := runid.FromContext(ctx); id != "" {
		return logger.With(slog.String("run_id", id))
	}
	return logger
}

type loggerKey struct{}

// FromContext returns the logger stored by WithLogger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
