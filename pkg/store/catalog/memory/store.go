package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// MemoryCatalogStore implements catalog.WritableStore using in-memory maps.
//
// It is suitable for tests, demos and catalogs that are rebuilt from a
// directory on every start (see the importer).
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu).
//
// Storage Model:
//   - datasets: dataset ID → dataset
//   - items: item ID → item (files and folders, including dataset roots)
//   - children: folder ID → child name → child ID
type MemoryCatalogStore struct {
	mu sync.RWMutex

	datasets map[catalog.DatasetID]*catalog.Dataset
	items    map[catalog.ItemID]*catalog.Item
	children map[catalog.ItemID]map[string]catalog.ItemID

	closed bool
	now    func() time.Time
}

// NewMemoryCatalogStore creates an empty catalog.
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		datasets: make(map[catalog.DatasetID]*catalog.Dataset),
		items:    make(map[catalog.ItemID]*catalog.Item),
		children: make(map[catalog.ItemID]map[string]catalog.ItemID),
		now:      time.Now,
	}
}

// Healthcheck reports whether the store is still open.
func (store *MemoryCatalogStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return catalog.NewError(catalog.ErrUnavailable, "catalog store is closed", "")
	}
	return nil
}

// Close marks the store closed. Subsequent calls fail with ErrUnavailable.
func (store *MemoryCatalogStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

// checkOpen must be called with mu held.
func (store *MemoryCatalogStore) checkOpen() error {
	if store.closed {
		return catalog.NewError(catalog.ErrUnavailable, "catalog store is closed", "")
	}
	return nil
}

func copyItem(item *catalog.Item) *catalog.Item {
	c := *item
	return &c
}

func copyDataset(ds *catalog.Dataset) *catalog.Dataset {
	c := *ds
	if ds.Groups != nil {
		c.Groups = append([]string(nil), ds.Groups...)
	}
	if ds.EmbargoUntil != nil {
		t := *ds.EmbargoUntil
		c.EmbargoUntil = &t
	}
	return &c
}

func newID() string {
	return uuid.New().String()
}

// sortedChildren must be called with mu held.
func (store *MemoryCatalogStore) sortedChildren(folderID catalog.ItemID) []*catalog.Item {
	names := make([]string, 0, len(store.children[folderID]))
	for name := range store.children[folderID] {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*catalog.Item, 0, len(names))
	for _, name := range names {
		if item, ok := store.items[store.children[folderID][name]]; ok {
			result = append(result, copyItem(item))
		}
	}
	return result
}
