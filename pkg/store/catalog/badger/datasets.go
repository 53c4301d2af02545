package badger

import (
	"context"
	"net/url"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

func getDataset(txn *badger.Txn, id catalog.DatasetID) (*catalog.Dataset, error) {
	entry, err := txn.Get(keyDataset(id))
	if err == badger.ErrKeyNotFound {
		return nil, catalog.NewError(catalog.ErrNotFound, "dataset not found", string(id))
	}
	if err != nil {
		return nil, err
	}

	var ds *catalog.Dataset
	err = entry.Value(func(val []byte) error {
		ds, err = decodeDataset(val)
		return err
	})
	return ds, err
}

func putDataset(txn *badger.Txn, ds *catalog.Dataset) error {
	data, err := encodeDataset(ds)
	if err != nil {
		return err
	}
	return txn.Set(keyDataset(ds.ID), data)
}

func (s *BadgerCatalogStore) CreateDataset(ctx context.Context, nds catalog.NewDataset) (*catalog.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	ds := &catalog.Dataset{
		ID:           catalog.DatasetID(newID()),
		Title:        nds.Title,
		RootID:       catalog.ItemID(newID()),
		DepositorID:  nds.DepositorID,
		Groups:       nds.Groups,
		EmbargoUntil: nds.EmbargoUntil,
		CreatedAt:    now,
	}
	root := &catalog.Item{
		ID:        ds.RootID,
		DatasetID: ds.ID,
		Kind:      catalog.ItemKindFolder,
		CreatedAt: now,
	}

	err := s.update(func(txn *badger.Txn) error {
		if err := putDataset(txn, ds); err != nil {
			return err
		}
		return putItem(txn, root)
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *BadgerCatalogStore) GetDataset(ctx context.Context, id catalog.DatasetID) (*catalog.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ds *catalog.Dataset
	err := s.view(func(txn *badger.Txn) error {
		var err error
		ds, err = getDataset(txn, id)
		return err
	})
	return ds, err
}

func (s *BadgerCatalogStore) AdditionalLicenseURL(ctx context.Context, id catalog.DatasetID) (*url.URL, bool, error) {
	ds, err := s.GetDataset(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if ds.LicenseID == "" {
		return nil, false, nil
	}
	return catalog.NewContentURL(ds.LicenseID), true, nil
}

func (s *BadgerCatalogStore) SetAdditionalLicense(ctx context.Context, id catalog.DatasetID, name string, licenseID catalog.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return catalog.NewError(catalog.ErrInvalidArgument, "empty license name", string(id))
	}

	return s.update(func(txn *badger.Txn) error {
		ds, err := getDataset(txn, id)
		if err != nil {
			return err
		}
		ds.LicenseName = name
		ds.LicenseID = licenseID
		return putDataset(txn, ds)
	})
}
