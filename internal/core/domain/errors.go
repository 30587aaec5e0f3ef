package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates another request is mutating the same resource
	ErrConflict = errors.New("conflict")

	// ErrTooLarge indicates an upload exceeds the configured size limit
	ErrTooLarge = errors.New("too large")

	// ErrUnsupportedType indicates the file type cannot serve the operation
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
