package content

import "errors"

// Implementations wrap these errors with context:
//
//	return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
var (
	// ErrContentNotFound indicates the requested content does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates an ID that cannot be mapped to a storage
	// location (empty, absolute, or escaping the store root).
	ErrInvalidContentID = errors.New("invalid content id")

	// ErrUnavailable indicates the backend cannot be reached.
	ErrUnavailable = errors.New("content store unavailable")
)
