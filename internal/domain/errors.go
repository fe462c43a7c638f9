package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the root of every boundary validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAsteroidNotFound is returned by asteroid providers for unknown object IDs.
	ErrAsteroidNotFound = errors.New("asteroid not found")
)

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
