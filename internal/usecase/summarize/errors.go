package summarize

import "errors"

var (
	// ErrConflictingModes is returned when both extract-only and prompt-only are requested.
	ErrConflictingModes = errors.New("--prompt and --extract-only are mutually exclusive")

	// ErrNoCompleter is returned when a summary is requested without a completion client.
	ErrNoCompleter = errors.New("no completion client configured")

	// ErrEmptyContent is returned when the link resolved to blank text.
	ErrEmptyContent = errors.New("no content to summarize")
)
