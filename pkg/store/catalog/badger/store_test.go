package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	catalogtesting "github.com/marmos91/dittozip/pkg/store/catalog/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCatalogStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func() catalog.WritableStore {
			store, err := NewBadgerCatalogStore(context.Background(), BadgerCatalogStoreConfig{
				DBPath: t.TempDir(),
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestBadgerCatalogStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerCatalogStore(ctx, BadgerCatalogStoreConfig{DBPath: dir})
	require.NoError(t, err)
	ds, err := store.CreateDataset(ctx, catalog.NewDataset{Title: "persisted"})
	require.NoError(t, err)
	file, err := store.CreateFile(ctx, ds.RootID, catalog.NewFile{Name: "a.txt", Size: 3, ContentID: "c1"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewBadgerCatalogStore(ctx, BadgerCatalogStoreConfig{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetItem(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Path)

	children, err := reopened.ListChildren(ctx, ds.RootID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, file.ID, children[0].ID)
}

func TestBadgerCatalogStoreInMemory(t *testing.T) {
	store, err := NewBadgerCatalogStore(context.Background(), BadgerCatalogStoreConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Healthcheck(context.Background()))
}
