// Package logging builds the slog logger for a run and carries it through
// context.Context.
//
// The CLI logs JSON at warn level by default so that stderr stays quiet, and
// switches to text at debug level under --verbose. Every record written
// through a logger from WithRunID carries the run_id attribute.
//
//	logger := logging.New(os.Stderr, logging.FormatJSON, logging.ParseLevel(env["LOG_LEVEL"], slog.LevelWarn))
//	ctx = logging.WithLogger(ctx, logging.WithRunID(ctx, logger))
//	logging.FromContext(ctx).Info("run started", slog.String("url", url))
package logging
