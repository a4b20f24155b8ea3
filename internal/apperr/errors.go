package apperr

import (
	"errors"
	"fmt"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context for the caller
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidDimensions     = New(CodeInvalidDimensions, "invalid dimensions")
	ErrInvalidCoordinates    = New(CodeInvalidCoordinates, "invalid coordinates")
	ErrInvalidModeTransition = New(CodeInvalidModeTransition, "invalid mode transition")
	ErrInvalidMode           = New(CodeInvalidMode, "invalid mode")
	ErrSessionNotFound       = New(CodeSessionNotFound, "session not found")
)

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InvalidDimensions reports a rows/cols pair outside [1, max].
func InvalidDimensions(rows, cols, maxRows, maxCols int) *Error {
	return WithMetadata(CodeInvalidDimensions,
		fmt.Sprintf("dimensions %dx%d outside 1..%dx1..%d", rows, cols, maxRows, maxCols),
		map[string]string{
			"rows":     fmt.Sprint(rows),
			"cols":     fmt.Sprint(cols),
			"max_rows": fmt.Sprint(maxRows),
			"max_cols": fmt.Sprint(maxCols),
		})
}

// InvalidCoordinates reports a cell outside the current grid.
func InvalidCoordinates(row, col, rows, cols int) *Error {
	return WithMetadata(CodeInvalidCoordinates,
		fmt.Sprintf("cell (%d,%d) outside %dx%d grid", row, col, rows, cols),
		map[string]string{
			"row":  fmt.Sprint(row),
			"col":  fmt.Sprint(col),
			"rows": fmt.Sprint(rows),
			"cols": fmt.Sprint(cols),
		})
}

// CodeOf extracts the code from err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
