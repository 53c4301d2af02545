package catalog

import (
	"time"
)

// ItemID identifies a file or folder in a dataset's content tree.
type ItemID string

// DatasetID identifies a dataset.
type DatasetID string

// ContentID is an opaque key into a content store.
type ContentID string

// ItemKind tells files and folders apart.
type ItemKind int

const (
	// ItemKindFile is a leaf item with content bytes.
	ItemKindFile ItemKind = iota

	// ItemKindFolder is an inner node of the content tree.
	ItemKindFolder
)

func (k ItemKind) String() string {
	switch k {
	case ItemKindFile:
		return "file"
	case ItemKindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// AccessCategory is the audience a file was deposited for.
type AccessCategory string

const (
	// AccessAnonymous files may be downloaded by anybody.
	AccessAnonymous AccessCategory = "anonymous"

	// AccessKnown files require a logged-in user.
	AccessKnown AccessCategory = "known"

	// AccessRestrictedRequest files require an explicit grant on the dataset.
	AccessRestrictedRequest AccessCategory = "restricted_request"

	// AccessRestrictedGroup files require membership of one of the dataset groups.
	AccessRestrictedGroup AccessCategory = "restricted_group"

	// AccessNone files are only available to the depositor and archivists.
	AccessNone AccessCategory = "none"
)

// Valid reports whether c is one of the known categories.
func (c AccessCategory) Valid() bool {
	switch c {
	case AccessAnonymous, AccessKnown, AccessRestrictedRequest, AccessRestrictedGroup, AccessNone:
		return true
	}
	return false
}

// Item describes a single node of a dataset's content tree.
//
// Items are fetched from a Store for the duration of one request and are
// never shared between requests. Size, Checksum, ContentID and MetadataID
// are only meaningful for files.
type Item struct {
	ID        ItemID    `json:"id"`
	DatasetID DatasetID `json:"dataset_id"`

	// ParentID is empty for a dataset's root folder.
	ParentID ItemID `json:"parent_id,omitempty"`

	Name string `json:"name"`

	// Path is relative to the dataset root, '/'-separated, without a
	// leading slash. The root folder has an empty path.
	Path string `json:"path"`

	Kind ItemKind `json:"kind"`
	Size int64    `json:"size,omitempty"`

	// Checksum is the lowercase hex SHA-1 of the content, empty when it was
	// never computed.
	Checksum string `json:"checksum,omitempty"`

	ContentID  ContentID `json:"content_id,omitempty"`
	MetadataID ContentID `json:"metadata_id,omitempty"`

	AccessibleTo AccessCategory `json:"accessible_to,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsFile reports whether the item is a file.
func (i *Item) IsFile() bool {
	return i.Kind == ItemKindFile
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool {
	return i.Kind == ItemKindFolder
}

// Dataset is the unit of deposit. All items belong to exactly one dataset.
type Dataset struct {
	ID    DatasetID `json:"id"`
	Title string    `json:"title"`

	// RootID is the folder every top-level item hangs from.
	RootID ItemID `json:"root_id"`

	DepositorID string   `json:"depositor_id"`
	Groups      []string `json:"groups,omitempty"`

	// EmbargoUntil, when set and in the future, hides every file from
	// everyone but the depositor and archivists.
	EmbargoUntil *time.Time `json:"embargo_until,omitempty"`

	// LicenseName and LicenseID reference an optional additional license
	// document stored in the content store.
	LicenseName string    `json:"license_name,omitempty"`
	LicenseID   ContentID `json:"license_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UnderEmbargo reports whether the dataset is embargoed at instant now.
func (d *Dataset) UnderEmbargo(now time.Time) bool {
	return d.EmbargoUntil != nil && d.EmbargoUntil.After(now)
}

// RequestedItem is a caller selection. IsFile selects a single file;
// otherwise the ID names a folder that is expanded recursively, or only one
// level deep (files only) when FilesOnly is set.
type RequestedItem struct {
	ID        ItemID `json:"id"`
	IsFile    bool   `json:"is_file"`
	FilesOnly bool   `json:"files_only"`
}

// NewDataset describes a dataset to be created by a WritableStore.
type NewDataset struct {
	Title        string
	DepositorID  string
	Groups       []string
	EmbargoUntil *time.Time
}

// NewFile describes a file to be created by a WritableStore.
type NewFile struct {
	Name         string
	Size         int64
	Checksum     string
	ContentID    ContentID
	AccessibleTo AccessCategory
}
