package download

import (
	"errors"
	"fmt"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
)

// AuthorizationError reports that the identity may not download anything
// of what it asked for.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// NotFoundError reports a requested dataset or file that does not exist.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.ID)
}

// StoreAccessError reports an unreachable catalog or content store.
type StoreAccessError struct {
	Err error
}

func (e *StoreAccessError) Error() string {
	return "store access failed: " + e.Err.Error()
}

func (e *StoreAccessError) Unwrap() error {
	return e.Err
}

// TooManyFilesError reports a selection with more items than allowed.
type TooManyFilesError struct {
	Actual int
	Limit  int
}

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("too many files: %d (limit %d)", e.Actual, e.Limit)
}

// PayloadTooLargeError reports a selection whose uncompressed size exceeds
// the limit. Both values are whole megabytes (bytes / 1048576).
type PayloadTooLargeError struct {
	ActualMB int64
	LimitMB  int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("download too large: %d MB (limit %d MB)", e.ActualMB, e.LimitMB)
}

// ProcessingError wraps any other failure: I/O while building the archive,
// unreachable content, policy evaluation errors.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Kind enumerates the error taxonomy for adapters and metrics.
type Kind int

const (
	KindNone Kind = iota
	KindAuthorization
	KindNotFound
	KindStoreAccess
	KindTooManyFiles
	KindPayloadTooLarge
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStoreAccess:
		return "store_access"
	case KindTooManyFiles:
		return "too_many_files"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "processing"
	}
}

// KindOf returns the taxonomy kind of err. Errors outside the taxonomy are
// KindProcessing; nil is KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		authErr     *AuthorizationError
		notFoundErr *NotFoundError
		storeErr    *StoreAccessError
		countErr    *TooManyFilesError
		sizeErr     *PayloadTooLargeError
	)
	switch {
	case errors.As(err, &authErr):
		return KindAuthorization
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &storeErr):
		return KindStoreAccess
	case errors.As(err, &countErr):
		return KindTooManyFiles
	case errors.As(err, &sizeErr):
		return KindPayloadTooLarge
	default:
		return KindProcessing
	}
}

// classify maps a collaborator error onto the taxonomy. Errors that already
// belong to it are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindProcessing {
		return err
	}

	var processingErr *ProcessingError
	if errors.As(err, &processingErr) {
		return err
	}

	var storeErr *catalog.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case catalog.ErrIOError, catalog.ErrUnavailable:
			return &StoreAccessError{Err: err}
		}
	}
	if errors.Is(err, content.ErrUnavailable) {
		return &StoreAccessError{Err: err}
	}
	return &ProcessingError{Op: op, Err: err}
}
