// Package content defines the byte storage behind "content:" URLs.
//
// The catalog only records opaque content IDs; the bytes of files,
// descriptive metadata documents and license documents live in a
// ContentStore.
package content

import (
	"context"
	"io"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// ContentStore is the read side of content storage.
//
// Thread Safety:
// Implementations must be safe for concurrent use.
type ContentStore interface {
	// ReadContent returns a reader for the content. The caller must close it.
	//
	// Returns:
	//   - error: ErrContentNotFound if the content doesn't exist
	ReadContent(ctx context.Context, id catalog.ContentID) (io.ReadCloser, error)

	// GetContentSize returns the size of the content in bytes.
	//
	// Returns:
	//   - error: ErrContentNotFound if the content doesn't exist
	GetContentSize(ctx context.Context, id catalog.ContentID) (uint64, error)

	// ContentExists reports whether the content exists. A missing object is
	// not an error.
	ContentExists(ctx context.Context, id catalog.ContentID) (bool, error)
}

// WritableContentStore adds whole-object writes and deletes.
type WritableContentStore interface {
	ContentStore

	// WriteContent stores data under id, replacing any previous content.
	WriteContent(ctx context.Context, id catalog.ContentID, data []byte) error

	// Delete removes the content. Deleting missing content is not an error.
	Delete(ctx context.Context, id catalog.ContentID) error
}
