// Package apperrors holds the sentinel errors shared across packages.
// Callers wrap them with fmt.Errorf("...: %w", ErrX) and match with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound is returned when a document, node or job id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a create-if-absent operation finds existing state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned for malformed request values.
	ErrInvalidInput = errors.New("invalid input")
)
