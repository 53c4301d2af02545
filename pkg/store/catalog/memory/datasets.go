package memory

import (
	"context"
	"net/url"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

func (store *MemoryCatalogStore) CreateDataset(ctx context.Context, ds catalog.NewDataset) (*catalog.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	now := store.now()
	dataset := &catalog.Dataset{
		ID:           catalog.DatasetID(newID()),
		Title:        ds.Title,
		RootID:       catalog.ItemID(newID()),
		DepositorID:  ds.DepositorID,
		Groups:       ds.Groups,
		EmbargoUntil: ds.EmbargoUntil,
		CreatedAt:    now,
	}
	dataset = copyDataset(dataset)

	store.datasets[dataset.ID] = dataset
	store.items[dataset.RootID] = &catalog.Item{
		ID:        dataset.RootID,
		DatasetID: dataset.ID,
		Kind:      catalog.ItemKindFolder,
		CreatedAt: now,
	}
	return copyDataset(dataset), nil
}

func (store *MemoryCatalogStore) GetDataset(ctx context.Context, id catalog.DatasetID) (*catalog.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	ds, ok := store.datasets[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "dataset not found", string(id))
	}
	return copyDataset(ds), nil
}

func (store *MemoryCatalogStore) AdditionalLicenseURL(ctx context.Context, id catalog.DatasetID) (*url.URL, bool, error) {
	ds, err := store.GetDataset(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if ds.LicenseID == "" {
		return nil, false, nil
	}
	return catalog.NewContentURL(ds.LicenseID), true, nil
}

func (store *MemoryCatalogStore) SetAdditionalLicense(ctx context.Context, id catalog.DatasetID, name string, licenseID catalog.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return catalog.NewError(catalog.ErrInvalidArgument, "empty license name", string(id))
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.checkOpen(); err != nil {
		return err
	}

	ds, ok := store.datasets[id]
	if !ok {
		return catalog.NewError(catalog.ErrNotFound, "dataset not found", string(id))
	}
	ds.LicenseName = name
	ds.LicenseID = licenseID
	return nil
}
