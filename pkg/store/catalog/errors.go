package catalog

import (
	"errors"
)

// StoreError represents a domain error from catalog operations.
//
// These are business logic errors (item not found, duplicate name, etc.)
// as opposed to raw infrastructure errors. Backends translate their own
// failures into ErrIOError or ErrUnavailable.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the item or dataset the error refers to (if applicable)
	ID string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// ErrorCode represents the category of a catalog error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested item or dataset doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates a sibling with the same name already exists
	ErrAlreadyExists

	// ErrNotFolder indicates a folder was expected
	ErrNotFolder

	// ErrNotFile indicates a file was expected
	ErrNotFile

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty ID batch, empty name, unknown access category
	ErrInvalidArgument

	// ErrIOError indicates the backend failed to read or write
	ErrIOError

	// ErrUnavailable indicates the backend is closed or unreachable
	ErrUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrAlreadyExists:
		return "already exists"
	case ErrNotFolder:
		return "not a folder"
	case ErrNotFile:
		return "not a file"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrIOError:
		return "i/o error"
	case ErrUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// NewError builds a StoreError.
func NewError(code ErrorCode, message, id string) *StoreError {
	return &StoreError{Code: code, Message: message, ID: id}
}

// IsCode reports whether err is (or wraps) a StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound is shorthand for IsCode(err, ErrNotFound).
func IsNotFound(err error) bool {
	return IsCode(err, ErrNotFound)
}
