package testing

import (
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLifecycleTests covers overwrite, isolation and deletion.
func (suite *StoreTestSuite) RunLifecycleTests(t *testing.T) {
	t.Run("OverwriteReplacesBytes", func(t *testing.T) {
		store := suite.NewStore()
		id := catalog.ContentID("datasets/ds-1/files/readme")

		write(t, store, id, []byte("first version, longer"))
		write(t, store, id, []byte("second"))

		assert.Equal(t, []byte("second"), read(t, store, id))
		size, err := store.GetContentSize(testContext(), id)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), size)
	})

	t.Run("StoreOwnsWrittenBytes", func(t *testing.T) {
		store := suite.NewStore()
		id := catalog.ContentID("datasets/ds-1/files/buffer")

		buf := []byte("original")
		write(t, store, id, buf)
		copy(buf, "CHANGED!")

		assert.Equal(t, []byte("original"), read(t, store, id))
	})

	t.Run("SiblingsAreIndependent", func(t *testing.T) {
		store := suite.NewStore()
		a := catalog.ContentID("datasets/ds-1/files/a")
		b := catalog.ContentID("datasets/ds-2/files/a")

		write(t, store, a, []byte("one"))
		write(t, store, b, []byte("two"))
		require.NoError(t, store.Delete(testContext(), a))

		assert.Equal(t, []byte("two"), read(t, store, b))
		_, err := store.ReadContent(testContext(), a)
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		store := suite.NewStore()
		id := catalog.ContentID("datasets/ds-1/files/gone")

		write(t, store, id, []byte("bye"))
		require.NoError(t, store.Delete(testContext(), id))
		require.NoError(t, store.Delete(testContext(), id))

		exists, err := store.ContentExists(testContext(), id)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
