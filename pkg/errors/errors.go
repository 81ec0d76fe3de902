// Package errors provides structured error types for the cleave service.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Attaching the violating identifiers (body, supervoxels, coordinates)
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every failure that aborts a cleave before a result is produced carries one
// of the codes below. Conditions that degrade a result without aborting it
// (unseeded components, broken group connectivity) are never errors; they are
// reported on the CleaveResult itself.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInsufficientSeeds, "cleave needs at least 2 seed groups, got %d", n)
//	if errors.Is(err, errors.ErrCodeInsufficientSeeds) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStoreUnavailable, origErr, "fetch edges for body %d", body)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidStrategy   Code = "INVALID_STRATEGY"
	ErrCodeInsufficientSeeds Code = "INSUFFICIENT_SEEDS"
	ErrCodeAmbiguousSeed     Code = "AMBIGUOUS_SEED"

	// Graph construction errors
	ErrCodeGraphTooLarge Code = "GRAPH_TOO_LARGE"
	ErrCodeBodyNotFound  Code = "BODY_NOT_FOUND"

	// Store / infrastructure errors
	ErrCodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	ErrCodeLockTimeout      Code = "LOCK_TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Retryable reports whether the error represents a transient condition the
// caller may retry (store outages and lock contention). Validation failures
// and oversized graphs are not retryable: the same request will fail again.
func Retryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeStoreUnavailable, ErrCodeLockTimeout:
		return true
	}
	return false
}
