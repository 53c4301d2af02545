package badger

import (
	"context"
	"net/url"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// getItem must be called inside a transaction.
func getItem(txn *badger.Txn, id catalog.ItemID) (*catalog.Item, error) {
	entry, err := txn.Get(keyItem(id))
	if err == badger.ErrKeyNotFound {
		return nil, catalog.NewError(catalog.ErrNotFound, "item not found", string(id))
	}
	if err != nil {
		return nil, err
	}

	var item *catalog.Item
	err = entry.Value(func(val []byte) error {
		item, err = decodeItem(val)
		return err
	})
	return item, err
}

func putItem(txn *badger.Txn, item *catalog.Item) error {
	data, err := encodeItem(item)
	if err != nil {
		return err
	}
	return txn.Set(keyItem(item.ID), data)
}

func getFolder(txn *badger.Txn, id catalog.ItemID) (*catalog.Item, error) {
	item, err := getItem(txn, id)
	if catalog.IsNotFound(err) {
		return nil, catalog.NewError(catalog.ErrNotFound, "folder not found", string(id))
	}
	if err != nil {
		return nil, err
	}
	if !item.IsFolder() {
		return nil, catalog.NewError(catalog.ErrNotFolder, "item is not a folder", string(id))
	}
	return item, nil
}

func getFile(txn *badger.Txn, id catalog.ItemID) (*catalog.Item, error) {
	item, err := getItem(txn, id)
	if err != nil {
		return nil, err
	}
	if !item.IsFile() {
		return nil, catalog.NewError(catalog.ErrNotFile, "item is not a file", string(id))
	}
	return item, nil
}

func (s *BadgerCatalogStore) GetItem(ctx context.Context, id catalog.ItemID) (*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *catalog.Item
	err := s.view(func(txn *badger.Txn) error {
		var err error
		item, err = getItem(txn, id)
		return err
	})
	return item, err
}

func (s *BadgerCatalogStore) FindItems(ctx context.Context, ids []catalog.ItemID) ([]*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "empty item id batch", "")
	}

	result := make([]*catalog.Item, 0, len(ids))
	err := s.view(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := getItem(txn, id)
			if catalog.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			result = append(result, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerCatalogStore) ListChildren(ctx context.Context, folderID catalog.ItemID) ([]*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var children []*catalog.Item
	err := s.view(func(txn *badger.Txn) error {
		if _, err := getFolder(txn, folderID); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = keyChildPrefix(folderID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var childID catalog.ItemID
			if err := it.Item().Value(func(val []byte) error {
				childID = catalog.ItemID(val)
				return nil
			}); err != nil {
				return err
			}

			child, err := getItem(txn, childID)
			if catalog.IsNotFound(err) {
				// dangling child entry
				continue
			}
			if err != nil {
				return err
			}
			children = append(children, child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (s *BadgerCatalogStore) ListFiles(ctx context.Context, folderID catalog.ItemID) ([]*catalog.Item, error) {
	children, err := s.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var files []*catalog.Item
	for _, child := range children {
		if child.IsFile() {
			files = append(files, child)
		}
	}
	return files, nil
}

func (s *BadgerCatalogStore) ContentURL(ctx context.Context, fileID catalog.ItemID) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *catalog.Item
	err := s.view(func(txn *badger.Txn) error {
		var err error
		item, err = getFile(txn, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return catalog.NewContentURL(item.ContentID), nil
}

func (s *BadgerCatalogStore) DescriptiveMetadataURL(ctx context.Context, fileID catalog.ItemID) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *catalog.Item
	err := s.view(func(txn *badger.Txn) error {
		var err error
		item, err = getFile(txn, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if item.MetadataID == "" {
		return nil, catalog.NewError(catalog.ErrNotFound, "file has no descriptive metadata", string(fileID))
	}
	return catalog.NewContentURL(item.MetadataID), nil
}

func (s *BadgerCatalogStore) CreateFolder(ctx context.Context, parentID catalog.ItemID, name string) (*catalog.Item, error) {
	return s.createItem(ctx, parentID, &catalog.Item{Name: name, Kind: catalog.ItemKindFolder})
}

func (s *BadgerCatalogStore) CreateFile(ctx context.Context, parentID catalog.ItemID, file catalog.NewFile) (*catalog.Item, error) {
	access := file.AccessibleTo
	if access == "" {
		access = catalog.AccessAnonymous
	}
	if !access.Valid() {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "unknown access category", string(access))
	}

	return s.createItem(ctx, parentID, &catalog.Item{
		Name:         file.Name,
		Kind:         catalog.ItemKindFile,
		Size:         file.Size,
		Checksum:     file.Checksum,
		ContentID:    file.ContentID,
		AccessibleTo: access,
	})
}

func (s *BadgerCatalogStore) createItem(ctx context.Context, parentID catalog.ItemID, item *catalog.Item) (*catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item.Name == "" {
		return nil, catalog.NewError(catalog.ErrInvalidArgument, "empty item name", string(parentID))
	}

	err := s.update(func(txn *badger.Txn) error {
		parent, err := getFolder(txn, parentID)
		if err != nil {
			return err
		}

		childKey := keyChild(parentID, item.Name)
		if _, err := txn.Get(childKey); err == nil {
			return catalog.NewError(catalog.ErrAlreadyExists, "item already exists", item.Name)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		item.ID = catalog.ItemID(newID())
		item.DatasetID = parent.DatasetID
		item.ParentID = parentID
		item.Path = catalog.JoinPath(parent.Path, item.Name)
		item.CreatedAt = s.now()

		if err := putItem(txn, item); err != nil {
			return err
		}
		return txn.Set(childKey, []byte(item.ID))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *BadgerCatalogStore) SetDescriptiveMetadata(ctx context.Context, fileID catalog.ItemID, metadataID catalog.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		item, err := getFile(txn, fileID)
		if err != nil {
			return err
		}
		item.MetadataID = metadataID
		return putItem(txn, item)
	})
}
