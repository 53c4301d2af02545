package memory

import (
	"context"
	"net/url"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

func (store *MemoryCatalogStore) GetItem(ctx context.Context, id catalog.ItemID) (*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	item, ok := store.items[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "item not found", string(id))
	}
	return copyItem(item), nil
}

func (store *MemoryCatalogStore) FindItems(ctx context.Context, ids []catalog.ItemID) ([]*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "empty item id batch", "")
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	result := make([]*catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := store.items[id]; ok {
			result = append(result, copyItem(item))
		}
	}
	return result, nil
}

func (store *MemoryCatalogStore) ListChildren(ctx context.Context, folderID catalog.ItemID) ([]*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if err := store.checkFolder(folderID); err != nil {
		return nil, err
	}
	return store.sortedChildren(folderID), nil
}

func (store *MemoryCatalogStore) ListFiles(ctx context.Context, folderID catalog.ItemID) ([]*catalog.Item, error) {
	children, err := store.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	files := children[:0]
	for _, child := range children {
		if child.IsFile() {
			files = append(files, child)
		}
	}
	return files, nil
}

// checkFolder must be called with mu held.
func (store *MemoryCatalogStore) checkFolder(id catalog.ItemID) error {
	if err := store.checkOpen(); err != nil {
		return err
	}
	item, ok := store.items[id]
	if !ok {
		return catalog.NewError(catalog.ErrNotFound, "folder not found", string(id))
	}
	if !item.IsFolder() {
		return catalog.NewError(catalog.ErrNotFolder, "item is not a folder", string(id))
	}
	return nil
}

// file must be called with mu held.
func (store *MemoryCatalogStore) file(id catalog.ItemID) (*catalog.Item, error) {
	if err := store.checkOpen(); err != nil {
		return nil, err
	}
	item, ok := store.items[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "item not found", string(id))
	}
	if !item.IsFile() {
		return nil, catalog.NewError(catalog.ErrNotFile, "item is not a file", string(id))
	}
	return item, nil
}

func (store *MemoryCatalogStore) ContentURL(ctx context.Context, fileID catalog.ItemID) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	item, err := store.file(fileID)
	if err != nil {
		return nil, err
	}
	return catalog.NewContentURL(item.ContentID), nil
}

func (store *MemoryCatalogStore) DescriptiveMetadataURL(ctx context.Context, fileID catalog.ItemID) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	item, err := store.file(fileID)
	if err != nil {
		return nil, err
	}
	if item.MetadataID == "" {
		return nil, catalog.NewError(catalog.ErrNotFound, "file has no descriptive metadata", string(fileID))
	}
	return catalog.NewContentURL(item.MetadataID), nil
}

func (store *MemoryCatalogStore) CreateFolder(ctx context.Context, parentID catalog.ItemID, name string) (*catalog.Item, error) {
	return store.createItem(ctx, parentID, &catalog.Item{Name: name, Kind: catalog.ItemKindFolder})
}

func (store *MemoryCatalogStore) CreateFile(ctx context.Context, parentID catalog.ItemID, file catalog.NewFile) (*catalog.Item, error) {
	access := file.AccessibleTo
	if access == "" {
		access = catalog.AccessAnonymous
	}
	if !access.Valid() {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "unknown access category", string(access))
	}

	return store.createItem(ctx, parentID, &catalog.Item{
		Name:         file.Name,
		Kind:         catalog.ItemKindFile,
		Size:         file.Size,
		Checksum:     file.Checksum,
		ContentID:    file.ContentID,
		AccessibleTo: access,
	})
}

func (store *MemoryCatalogStore) createItem(ctx context.Context, parentID catalog.ItemID, item *catalog.Item) (*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item.Name == "" {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "empty item name", string(parentID))
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.checkFolder(parentID); err != nil {
		return nil, err
	}
	if _, exists := store.children[parentID][item.Name]; exists {
		return nil, catalog.NewError(catalog.ErrAlreadyExists, "item already exists", item.Name)
	}

	parent := store.items[parentID]
	item.ID = catalog.ItemID(newID())
	item.DatasetID = parent.DatasetID
	item.ParentID = parentID
	item.Path = catalog.JoinPath(parent.Path, item.Name)
	item.CreatedAt = store.now()

	store.items[item.ID] = item
	if store.children[parentID] == nil {
		store.children[parentID] = make(map[string]catalog.ItemID)
	}
	store.children[parentID][item.Name] = item.ID
	return copyItem(item), nil
}

func (store *MemoryCatalogStore) SetDescriptiveMetadata(ctx context.Context, fileID catalog.ItemID, metadataID catalog.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	item, err := store.file(fileID)
	if err != nil {
		return err
	}
	item.MetadataID = metadataID
	return nil
}
