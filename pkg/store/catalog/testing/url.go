package testing

import (
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunURLTests executes content and metadata URL tests.
func (suite *StoreTestSuite) RunURLTests(t *testing.T) {
	t.Run("ContentURL", suite.testContentURL)
	t.Run("DescriptiveMetadataURL", suite.testDescriptiveMetadataURL)
}

func (suite *StoreTestSuite) testContentURL(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "urls")
	file := createTestFile(t, store, ds.RootID, "data.bin", 10)

	u, err := store.ContentURL(testContext(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContentScheme, u.Scheme)

	id, err := catalog.ParseContentURL(u)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContentID("content-data.bin"), id)

	_, err = store.ContentURL(testContext(), ds.RootID)
	requireCode(t, err, catalog.ErrNotFile)

	_, err = store.ContentURL(testContext(), "missing")
	requireCode(t, err, catalog.ErrNotFound)
}

func (suite *StoreTestSuite) testDescriptiveMetadataURL(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "meta")
	file := createTestFile(t, store, ds.RootID, "data.bin", 10)

	_, err := store.DescriptiveMetadataURL(testContext(), file.ID)
	requireCode(t, err, catalog.ErrNotFound)

	require.NoError(t, store.SetDescriptiveMetadata(testContext(), file.ID, "meta-blob"))

	u, err := store.DescriptiveMetadataURL(testContext(), file.ID)
	require.NoError(t, err)
	id, err := catalog.ParseContentURL(u)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContentID("meta-blob"), id)

	err = store.SetDescriptiveMetadata(testContext(), ds.RootID, "x")
	requireCode(t, err, catalog.ErrNotFile)
}
