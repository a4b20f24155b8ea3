// Package apperr provides coded errors for the session engine and its adapters.
package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	CodeInvalidDimensions     Code = "INVALID_DIMENSIONS"
	CodeInvalidCoordinates    Code = "INVALID_COORDINATES"
	CodeInvalidModeTransition Code = "INVALID_MODE_TRANSITION"
	CodeInvalidMode           Code = "INVALID_MODE"

	// Adapter errors
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeBadRequest      Code = "BAD_REQUEST"
)

// HTTPStatus maps a code to the status the HTTP adapter responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidDimensions, CodeInvalidCoordinates, CodeInvalidMode, CodeBadRequest:
		return http.StatusBadRequest
	case CodeInvalidModeTransition:
		return http.StatusConflict
	case CodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
