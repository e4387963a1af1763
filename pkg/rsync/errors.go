package rsync

import (
	"fmt"
)

// IOError indicates that reading or writing an underlying stream failed. It
// wraps the original error without modification.
type IOError struct {
	// Op describes the operation that failed.
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements error.Error.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// newIOError creates a new IOError.
func newIOError(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

// FormatError indicates that a serialized signature or delta is truncated or
// otherwise malformed.
type FormatError struct {
	// Message describes the violation.
	Message string
}

// Error implements error.Error.
func (e *FormatError) Error() string {
	return "invalid format: " + e.Message
}

// formatErrorf creates a new FormatError.
func formatErrorf(format string, arguments ...interface{}) error {
	return &FormatError{Message: fmt.Sprintf(format, arguments...)}
}

// CorruptionError indicates that a delta does not fit the base it is being
// applied to, usually because the base is not the one that the delta's
// signature was computed from.
type CorruptionError struct {
	// Message describes the inconsistency.
	Message string
}

// Error implements error.Error.
func (e *CorruptionError) Error() string {
	return "corrupt patch: " + e.Message
}

// corruptionErrorf creates a new CorruptionError.
func corruptionErrorf(format string, arguments ...interface{}) error {
	return &CorruptionError{Message: fmt.Sprintf(format, arguments...)}
}
