package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a conformance suite for catalog.WritableStore
// implementations. It tests the interface contract, not implementation
// details, so every backend (memory, badger) runs the same tests.
//
// Usage:
//
//	func TestMyCatalogStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func() catalog.WritableStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func() catalog.WritableStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Datasets", suite.RunDatasetTests)
	t.Run("Items", suite.RunItemTests)
	t.Run("URLs", suite.RunURLTests)
}

func testContext() context.Context {
	return context.Background()
}

// newStore creates a store and closes it when the test ends.
func (suite *StoreTestSuite) newStore(t *testing.T) catalog.WritableStore {
	t.Helper()
	store := suite.NewStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestDataset(t *testing.T, store catalog.WritableStore, title string) *catalog.Dataset {
	t.Helper()
	ds, err := store.CreateDataset(testContext(), catalog.NewDataset{Title: title, DepositorID: "depositor"})
	require.NoError(t, err)
	return ds
}

func createTestFolder(t *testing.T, store catalog.WritableStore, parent catalog.ItemID, name string) *catalog.Item {
	t.Helper()
	folder, err := store.CreateFolder(testContext(), parent, name)
	require.NoError(t, err)
	return folder
}

func createTestFile(t *testing.T, store catalog.WritableStore, parent catalog.ItemID, name string, size int64) *catalog.Item {
	t.Helper()
	file, err := store.CreateFile(testContext(), parent, catalog.NewFile{
		Name:      name,
		Size:      size,
		Checksum:  "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		ContentID: catalog.ContentID("content-" + name),
	})
	require.NoError(t, err)
	return file
}

func requireCode(t *testing.T, err error, code catalog.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, catalog.IsCode(err, code), "expected %s, got %v", code, err)
}

func names(items []*catalog.Item) []string {
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.Name
	}
	return result
}
