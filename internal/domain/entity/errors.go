// Package entity defines the domain types shared by the content pipeline: fetch
// results, diagnostics, transcript provider identifiers and budgets.
package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports a caller-supplied value that cannot be used, such as
// a URL the pipeline cannot fetch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "invalid " + e.Field
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
