package catalog

import (
	"context"
	"net/url"
)

// Store is the read side of the dataset catalog.
//
// It is the only way the download pipeline learns about items. Every method
// respects context cancellation and returns *StoreError for domain failures.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// GetItem returns a single item.
	//
	// Returns:
	//   - error: ErrNotFound if the item doesn't exist
	GetItem(ctx context.Context, id ItemID) (*Item, error)

	// FindItems looks up a batch of items.
	//
	// Missing IDs are silently omitted. The result keeps the order of ids.
	//
	// Returns:
	//   - error: ErrInvalidArgument if ids is empty
	FindItems(ctx context.Context, ids []ItemID) ([]*Item, error)

	// ListFiles returns the immediate file children of a folder, ordered by name.
	//
	// Returns:
	//   - error: ErrNotFound if the folder doesn't exist, ErrNotFolder if id is a file
	ListFiles(ctx context.Context, folderID ItemID) ([]*Item, error)

	// ListChildren returns the immediate children (files and folders) of a
	// folder, ordered by name.
	//
	// Returns:
	//   - error: ErrNotFound if the folder doesn't exist, ErrNotFolder if id is a file
	ListChildren(ctx context.Context, folderID ItemID) ([]*Item, error)

	// ContentURL returns the URL the bytes of a file can be streamed from.
	//
	// Returns:
	//   - error: ErrNotFound if the item doesn't exist, ErrNotFile for folders
	ContentURL(ctx context.Context, fileID ItemID) (*url.URL, error)

	// DescriptiveMetadataURL returns the URL of the descriptive metadata
	// document attached to a file.
	//
	// Returns:
	//   - error: ErrNotFound if the item doesn't exist or carries no metadata,
	//     ErrNotFile for folders
	DescriptiveMetadataURL(ctx context.Context, fileID ItemID) (*url.URL, error)

	// GetDataset returns a dataset.
	//
	// Returns:
	//   - error: ErrNotFound if the dataset doesn't exist
	GetDataset(ctx context.Context, id DatasetID) (*Dataset, error)

	// AdditionalLicenseURL returns the URL of the additional license document
	// of a dataset. ok is false when the dataset has none.
	AdditionalLicenseURL(ctx context.Context, id DatasetID) (u *url.URL, ok bool, err error)

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error
}

// WritableStore adds the mutations used to populate a catalog.
type WritableStore interface {
	Store

	// CreateDataset creates a dataset together with its root folder.
	CreateDataset(ctx context.Context, ds NewDataset) (*Dataset, error)

	// CreateFolder creates a folder under parentID.
	//
	// Returns:
	//   - error: ErrAlreadyExists if parentID already has a child named name
	CreateFolder(ctx context.Context, parentID ItemID, name string) (*Item, error)

	// CreateFile creates a file under parentID.
	//
	// Returns:
	//   - error: ErrAlreadyExists if parentID already has a child with that
	//     name, ErrInvalidArgument for an unknown access category
	CreateFile(ctx context.Context, parentID ItemID, file NewFile) (*Item, error)

	// SetDescriptiveMetadata attaches a metadata document to a file.
	SetDescriptiveMetadata(ctx context.Context, fileID ItemID, metadataID ContentID) error

	// SetAdditionalLicense attaches an additional license document to a dataset.
	SetAdditionalLicense(ctx context.Context, id DatasetID, name string, licenseID ContentID) error

	// Close releases backend resources.
	Close() error
}
