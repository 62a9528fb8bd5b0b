// Package domain holds the shared error taxonomy and collaborator contracts.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested record does not exist.
// Wrap it with context: fmt.Errorf("lot %d: %w", id, domain.ErrNotFound)
var ErrNotFound = errors.New("not found")

// ValidationError indicates rejected input. It is always surfaced to the
// caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// QuoteError indicates the quote provider failed for a single symbol.
// It is caught inside the market module and downgrades that symbol to the
// unpriced variant; it never aborts a valuation pass.
type QuoteError struct {
	Symbol string
	Err    error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote %s: %v", e.Symbol, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}
