// Package fs implements filesystem-based content storage.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
)

// FSContentStore stores each content object as a file under basePath, using
// the content ID as the relative file name.
//
// Thread Safety:
// Writes go through a temporary file and a rename, so readers never observe
// a partially written object.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates the store, creating basePath if needed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: if the directory cannot be created or ctx is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Create the base directory if it doesn't exist
	// ========================================================================

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath maps a content ID to a path under basePath.
func (r *FSContentStore) getFilePath(id catalog.ContentID) (string, error) {
	rel := filepath.FromSlash(string(id))
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("content %q: %w", id, content.ErrInvalidContentID)
	}

	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("content %q: %w", id, content.ErrInvalidContentID)
	}
	return filepath.Join(r.basePath, clean), nil
}

func (r *FSContentStore) ReadContent(ctx context.Context, id catalog.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open content %s: %w", id, err)
	}
	return f, nil
}

func (r *FSContentStore) GetContentSize(ctx context.Context, id catalog.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat content %s: %w", id, err)
	}
	return uint64(info.Size()), nil
}

func (r *FSContentStore) ContentExists(ctx context.Context, id catalog.ContentID) (bool, error) {
	_, err := r.GetContentSize(ctx, id)
	if errors.Is(err, content.ErrContentNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *FSContentStore) WriteContent(ctx context.Context, id catalog.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write content %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close content %s: %w", id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit content %s: %w", id, err)
	}
	return nil
}

func (r *FSContentStore) Delete(ctx context.Context, id catalog.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content %s: %w", id, err)
	}
	return nil
}

// BasePath returns the root directory of the store.
func (r *FSContentStore) BasePath() string {
	return r.basePath
}
