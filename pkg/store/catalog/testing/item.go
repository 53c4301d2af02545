package testing

import (
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunItemTests executes item tests.
func (suite *StoreTestSuite) RunItemTests(t *testing.T) {
	t.Run("CreateFolderAndFile", suite.testCreateFolderAndFile)
	t.Run("DuplicateName", suite.testDuplicateName)
	t.Run("InvalidArguments", suite.testInvalidItemArguments)
	t.Run("FindItems", suite.testFindItems)
	t.Run("ListChildren", suite.testListChildren)
	t.Run("ListFiles", suite.testListFiles)
	t.Run("ListOnFile", suite.testListOnFile)
}

func (suite *StoreTestSuite) testCreateFolderAndFile(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "tree")

	folder := createTestFolder(t, store, ds.RootID, "data")
	assert.Equal(t, "data", folder.Path)
	assert.Equal(t, ds.RootID, folder.ParentID)
	assert.Equal(t, ds.ID, folder.DatasetID)

	file := createTestFile(t, store, folder.ID, "a.csv", 42)
	assert.Equal(t, "data/a.csv", file.Path)
	assert.Equal(t, catalog.AccessAnonymous, file.AccessibleTo)

	got, err := store.GetItem(testContext(), file.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFile())
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", got.Checksum)
	assert.Equal(t, catalog.ContentID("content-a.csv"), got.ContentID)
	assert.Equal(t, folder.ID, got.ParentID)
}

func (suite *StoreTestSuite) testDuplicateName(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "dup")
	createTestFile(t, store, ds.RootID, "a.txt", 1)

	_, err := store.CreateFolder(testContext(), ds.RootID, "a.txt")
	requireCode(t, err, catalog.ErrAlreadyExists)
}

func (suite *StoreTestSuite) testInvalidItemArguments(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "invalid")

	_, err := store.CreateFolder(testContext(), ds.RootID, "")
	requireCode(t, err, catalog.ErrInvalidArgument)

	_, err = store.CreateFile(testContext(), ds.RootID, catalog.NewFile{Name: "x", AccessibleTo: "everyone"})
	requireCode(t, err, catalog.ErrInvalidArgument)

	_, err = store.CreateFolder(testContext(), "missing", "x")
	requireCode(t, err, catalog.ErrNotFound)

	file := createTestFile(t, store, ds.RootID, "leaf", 1)
	_, err = store.CreateFolder(testContext(), file.ID, "x")
	requireCode(t, err, catalog.ErrNotFolder)

	_, err = store.FindItems(testContext(), nil)
	requireCode(t, err, catalog.ErrInvalidArgument)
}

func (suite *StoreTestSuite) testFindItems(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "batch")
	a := createTestFile(t, store, ds.RootID, "a", 1)
	b := createTestFile(t, store, ds.RootID, "b", 2)

	items, err := store.FindItems(testContext(), []catalog.ItemID{b.ID, "gone", a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(items))

	items, err = store.FindItems(testContext(), []catalog.ItemID{"gone"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func (suite *StoreTestSuite) testListChildren(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "listing")
	createTestFile(t, store, ds.RootID, "zeta.txt", 1)
	createTestFolder(t, store, ds.RootID, "beta")
	createTestFile(t, store, ds.RootID, "alpha.txt", 1)

	children, err := store.ListChildren(testContext(), ds.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.txt", "beta", "zeta.txt"}, names(children))

	empty := createTestFolder(t, store, ds.RootID, "empty")
	children, err = store.ListChildren(testContext(), empty.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func (suite *StoreTestSuite) testListFiles(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "files")
	sub := createTestFolder(t, store, ds.RootID, "sub")
	createTestFile(t, store, sub.ID, "nested.txt", 1)
	createTestFile(t, store, ds.RootID, "b.txt", 1)
	createTestFile(t, store, ds.RootID, "a.txt", 1)

	files, err := store.ListFiles(testContext(), ds.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(files))
}

func (suite *StoreTestSuite) testListOnFile(t *testing.T) {
	store := suite.newStore(t)
	ds := createTestDataset(t, store, "notfolder")
	file := createTestFile(t, store, ds.RootID, "f", 1)

	_, err := store.ListChildren(testContext(), file.ID)
	requireCode(t, err, catalog.ErrNotFolder)

	_, err = store.ListFiles(testContext(), "missing")
	requireCode(t, err, catalog.ErrNotFound)
}
