// Package importer loads a local directory tree into a catalog and content
// store as a new dataset.
//
// Layout conventions:
//   - every directory becomes a folder, every regular file a file item
//   - "<name>.metadata.xml" next to "<name>" is attached to it as descriptive
//     metadata instead of being imported as a file
//   - symlinks and other special files are skipped
package importer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
)

// MetadataSuffix marks descriptive metadata sidecar files.
const MetadataSuffix = ".metadata.xml"

// Options describe the dataset being imported.
type Options struct {
	Title        string
	DepositorID  string
	Groups       []string
	EmbargoUntil *time.Time

	// AccessibleTo applies to every imported file (default anonymous).
	AccessibleTo catalog.AccessCategory

	// LicensePath is an optional additional license document.
	LicensePath string

	// LicenseName is the archive name of the license (default: base name
	// of LicensePath).
	LicenseName string
}

// Result summarizes an import.
type Result struct {
	Dataset  *catalog.Dataset
	Folders  int
	Files    int
	Metadata int
	Bytes    int64
	Skipped  []string
}

// Importer writes directory trees into a catalog and a content store.
type Importer struct {
	catalog catalog.WritableStore
	content content.WritableContentStore
}

// New creates an importer.
func New(cat catalog.WritableStore, cont content.WritableContentStore) *Importer {
	return &Importer{catalog: cat, content: cont}
}

// Import creates a dataset from the tree rooted at root.
//
// A failed import leaves whatever was already written in place; catalogs
// have no delete operation.
func (im *Importer) Import(ctx context.Context, root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat import root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import root %s is not a directory", root)
	}

	if opts.Title == "" {
		opts.Title = filepath.Base(filepath.Clean(root))
	}
	if opts.AccessibleTo == "" {
		opts.AccessibleTo = catalog.AccessAnonymous
	}
	if !opts.AccessibleTo.Valid() {
		return nil, fmt.Errorf("unknown access category %q", opts.AccessibleTo)
	}

	ds, err := im.catalog.CreateDataset(ctx, catalog.NewDataset{
		Title:        opts.Title,
		DepositorID:  opts.DepositorID,
		Groups:       opts.Groups,
		EmbargoUntil: opts.EmbargoUntil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	result := &Result{Dataset: ds}
	folders := map[string]catalog.ItemID{".": ds.RootID}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		parentID := folders[path.Dir(rel)]

		switch {
		case d.IsDir():
			folder, err := im.catalog.CreateFolder(ctx, parentID, d.Name())
			if err != nil {
				return fmt.Errorf("failed to create folder %s: %w", rel, err)
			}
			folders[rel] = folder.ID
			result.Folders++
			return nil

		case !d.Type().IsRegular():
			logger.Warn("Skipping %s: not a regular file", rel)
			result.Skipped = append(result.Skipped, rel)
			return nil

		case isSidecar(p):
			// attached when its file is imported
			return nil
		}

		return im.importFile(ctx, ds, parentID, p, rel, opts.AccessibleTo, result)
	})
	if err != nil {
		return result, err
	}

	if opts.LicensePath != "" {
		if err := im.importLicense(ctx, ds, opts); err != nil {
			return result, err
		}
		if result.Dataset, err = im.catalog.GetDataset(ctx, ds.ID); err != nil {
			return result, fmt.Errorf("failed to reload dataset: %w", err)
		}
	}

	logger.Info("Imported dataset %s (%q): %d folder(s), %d file(s), %d metadata document(s), %s",
		ds.ID, opts.Title, result.Folders, result.Files, result.Metadata, humanize.IBytes(uint64(result.Bytes)))

	return result, nil
}

func (im *Importer) importFile(ctx context.Context, ds *catalog.Dataset, parentID catalog.ItemID, p, rel string, access catalog.AccessCategory, result *Result) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}

	contentID := newContentID(ds.ID, "files")
	if err := im.content.WriteContent(ctx, contentID, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", rel, err)
	}

	sum := sha1.Sum(data)
	item, err := im.catalog.CreateFile(ctx, parentID, catalog.NewFile{
		Name:         filepath.Base(p),
		Size:         int64(len(data)),
		Checksum:     hex.EncodeToString(sum[:]),
		ContentID:    contentID,
		AccessibleTo: access,
	})
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", rel, err)
	}
	result.Files++
	result.Bytes += item.Size
	logger.Debug("Imported %s (%s)", rel, humanize.IBytes(uint64(item.Size)))

	sidecar := p + MetadataSuffix
	doc, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata of %s: %w", rel, err)
	}

	metadataID := newContentID(ds.ID, "metadata")
	if err := im.content.WriteContent(ctx, metadataID, doc); err != nil {
		return fmt.Errorf("failed to store metadata of %s: %w", rel, err)
	}
	if err := im.catalog.SetDescriptiveMetadata(ctx, item.ID, metadataID); err != nil {
		return fmt.Errorf("failed to attach metadata to %s: %w", rel, err)
	}
	result.Metadata++
	return nil
}

func (im *Importer) importLicense(ctx context.Context, ds *catalog.Dataset, opts Options) error {
	doc, err := os.ReadFile(opts.LicensePath)
	if err != nil {
		return fmt.Errorf("failed to read license: %w", err)
	}

	name := opts.LicenseName
	if name == "" {
		name = filepath.Base(opts.LicensePath)
	}

	licenseID := newContentID(ds.ID, "license")
	if err := im.content.WriteContent(ctx, licenseID, doc); err != nil {
		return fmt.Errorf("failed to store license: %w", err)
	}
	if err := im.catalog.SetAdditionalLicense(ctx, ds.ID, name, licenseID); err != nil {
		return fmt.Errorf("failed to attach license: %w", err)
	}
	return nil
}

// isSidecar reports whether p is the metadata document of a sibling file.
func isSidecar(p string) bool {
	base, ok := strings.CutSuffix(p, MetadataSuffix)
	if !ok || filepath.Base(base) == "" {
		return false
	}
	info, err := os.Lstat(base)
	return err == nil && info.Mode().IsRegular()
}

func newContentID(datasetID catalog.DatasetID, kind string) catalog.ContentID {
	return catalog.ContentID(path.Join("datasets", string(datasetID), kind, uuid.NewString()))
}
