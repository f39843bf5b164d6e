package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrMissingLabel     = errors.New("missing car label")
	ErrMissingInfo      = errors.New("missing car info")
	ErrNoImageURLs      = errors.New("no valid image URLs")
	ErrUploadTooLarge   = errors.New("image file is too large")
	ErrUploadBadFormat  = errors.New("unsupported image format")
	ErrUploadUnreadable = errors.New("invalid image file")
)

// ValidationError wraps a sentinel with field context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
