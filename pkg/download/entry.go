package download

import (
	"context"
	"net/url"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// EntryKind tells how an entry's bytes are obtained.
type EntryKind int

const (
	// EntryFile streams bytes from URL.
	EntryFile EntryKind = iota

	// EntryFolder is a directory marker without content.
	EntryFolder

	// EntryDocument carries its bytes inline in Data.
	EntryDocument
)

// Entry is one member of the produced archive.
type Entry struct {
	Path string
	Kind EntryKind
	URL  *url.URL
	Data []byte
}

// buildEntries turns permitted items into archive entries and, while doing
// so, re-accumulates the uncompressed size of the files. The total is
// reported with the result; Limits.Check has already enforced the bound.
func (a *Assembler) buildEntries(ctx context.Context, items []*catalog.Item) ([]Entry, int64, error) {
	entries := make([]Entry, 0, len(items)+4)

	var totalSize int64
	for _, item := range items {
		switch item.Kind {
		case catalog.ItemKindFile:
			totalSize += item.Size
			u, err := a.store.ContentURL(ctx, item.ID)
			if err != nil {
				return nil, 0, classify("build entries", err)
			}
			entries = append(entries, Entry{Path: item.Path, Kind: EntryFile, URL: u})

		case catalog.ItemKindFolder:
			entries = append(entries, Entry{Path: item.Path, Kind: EntryFolder})

		default:
			logger.Warn("Unknown item kind %v for %s", item.Kind, item.ID)
		}
	}
	return entries, totalSize, nil
}
