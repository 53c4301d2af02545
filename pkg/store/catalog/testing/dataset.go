package testing

import (
	"testing"
	"time"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDatasetTests executes dataset tests.
func (suite *StoreTestSuite) RunDatasetTests(t *testing.T) {
	t.Run("CreateAndGet", suite.testCreateAndGetDataset)
	t.Run("NotFound", suite.testDatasetNotFound)
	t.Run("AdditionalLicense", suite.testAdditionalLicense)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *StoreTestSuite) testCreateAndGetDataset(t *testing.T) {
	store := suite.newStore(t)
	embargo := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	ds, err := store.CreateDataset(testContext(), catalog.NewDataset{
		Title:        "Excavation Report",
		DepositorID:  "alice",
		Groups:       []string{"archaeology"},
		EmbargoUntil: &embargo,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.NotEmpty(t, ds.RootID)

	got, err := store.GetDataset(testContext(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "Excavation Report", got.Title)
	assert.Equal(t, "alice", got.DepositorID)
	assert.Equal(t, []string{"archaeology"}, got.Groups)
	require.NotNil(t, got.EmbargoUntil)
	assert.True(t, embargo.Equal(*got.EmbargoUntil))

	root, err := store.GetItem(testContext(), ds.RootID)
	require.NoError(t, err)
	assert.True(t, root.IsFolder())
	assert.Equal(t, "", root.Path)
	assert.Equal(t, ds.ID, root.DatasetID)
}

func (suite *StoreTestSuite) testDatasetNotFound(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.GetDataset(testContext(), "missing")
	requireCode(t, err, catalog.ErrNotFound)

	_, _, err = store.AdditionalLicenseURL(testContext(), "missing")
	requireCode(t, err, catalog.ErrNotFound)
}

func (suite *StoreTestSuite) testAdditionalLicense(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "licensed")

	_, ok, err := store.AdditionalLicenseURL(testContext(), ds.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetAdditionalLicense(testContext(), ds.ID, "CC-BY-4.0.pdf", "license-blob"))

	u, ok, err := store.AdditionalLicenseURL(testContext(), ds.ID)
	require.NoError(t, err)
	require.True(t, ok)
	id, err := catalog.ParseContentURL(u)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContentID("license-blob"), id)

	got, err := store.GetDataset(testContext(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "CC-BY-4.0.pdf", got.LicenseName)

	err = store.SetAdditionalLicense(testContext(), ds.ID, "", "x")
	requireCode(t, err, catalog.ErrInvalidArgument)
}

func (suite *StoreTestSuite) testHealthcheck(t *testing.T) {
	store := suite.NewStore()
	require.NoError(t, store.Healthcheck(testContext()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Healthcheck(testContext()))
}
