package errors

import (
	"errors"
	"fmt"
)

// Standard errors
var (
	// ErrInvalidInput is returned when a caller-supplied argument is invalid
	// (e.g., a non-positive match count on retrieval)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig is returned when a configuration value is rejected at
	// construction time (e.g., a negative document cap)
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrEmbeddingUnavailable is returned by embedding adapters when the
	// backend cannot produce vectors; the memory store treats it as a soft
	// failure and falls back to lexical-only scoring
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrStoreClosed is returned when an operation is attempted on a closed
	// persistence store
	ErrStoreClosed = errors.New("store is closed")
)

// Wrap wraps an error with additional context
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience function that wraps errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target, and if so, sets
// target to that error value and returns true. Otherwise, it returns false.
// This is a convenience function that wraps errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
