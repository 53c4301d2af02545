package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marmos91/dittozip/pkg/fetch"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

const (
	metadataHeader = "<?xml version='1.0' encoding='UTF-8'?>\n<metadata>\n"
	metadataFooter = "</metadata>\n"
)

// MetadataCollector aggregates the descriptive metadata documents of the
// downloaded files into one XML document.
type MetadataCollector struct {
	store  catalog.Store
	opener fetch.Opener
}

// NewMetadataCollector creates a collector.
func NewMetadataCollector(store catalog.Store, opener fetch.Opener) *MetadataCollector {
	return &MetadataCollector{store: store, opener: opener}
}

// Collect writes the aggregated document for the file items to w and
// reports whether any file item was present. When it returns false the
// caller must discard what was written.
//
// Each fragment is copied up to, not including, its first NUL byte. Older
// metadata exports were NUL padded and the archive format has always cut
// them there; anything after a NUL is dropped.
//
// A file without descriptive metadata contributes an empty fragment.
func (c *MetadataCollector) Collect(ctx context.Context, w io.Writer, items []*catalog.Item) (bool, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(metadataHeader); err != nil {
		return false, err
	}

	hasFiles := false
	for _, item := range items {
		if !item.IsFile() {
			continue
		}
		hasFiles = true

		if err := c.collectOne(ctx, bw, item); err != nil {
			return false, err
		}
	}

	if _, err := bw.WriteString(metadataFooter); err != nil {
		return false, err
	}
	return hasFiles, bw.Flush()
}

func (c *MetadataCollector) collectOne(ctx context.Context, w *bufio.Writer, item *catalog.Item) error {
	u, err := c.store.DescriptiveMetadataURL(ctx, item.ID)
	if catalog.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	rc, err := c.opener.Open(ctx, u)
	if err != nil {
		return fmt.Errorf("failed to open descriptive metadata of %s: %w", item.ID, err)
	}
	defer rc.Close()

	if err := copyUntilNUL(w, bufio.NewReader(rc)); err != nil {
		return fmt.Errorf("failed to read descriptive metadata of %s: %w", item.ID, err)
	}
	return nil
}

func copyUntilNUL(w io.ByteWriter, r io.ByteReader) error {
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
}
