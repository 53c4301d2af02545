package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payloads are shaped after what ends up in archives.
var payloads = []struct {
	name string
	id   catalog.ContentID
	data []byte
}{
	{"CSV", "datasets/ds-1/files/values", []byte("a,b\n1,2\n3,4\n")},
	{"EmptyFile", "datasets/ds-1/files/empty", []byte{}},
	{"MetadataWithNUL", "datasets/ds-1/metadata/m1", []byte("<file name=\"a\"/>\x00trailing")},
	{"BinaryDocument", "datasets/ds-1/licenses/l1", append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0, 0xff, 0x7f}, 300)...)},
	{"LargeFile", "datasets/ds-2/files/large", patterned(8 << 20)},
}

// RunPayloadTests writes each payload and reads it back.
func (suite *StoreTestSuite) RunPayloadTests(t *testing.T) {
	for _, p := range payloads {
		t.Run(p.name, func(t *testing.T) {
			store := suite.NewStore()
			write(t, store, p.id, p.data)

			assert.Equal(t, p.data, read(t, store, p.id))

			size, err := store.GetContentSize(testContext(), p.id)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(p.data)), size)

			exists, err := store.ContentExists(testContext(), p.id)
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

// RunMissingTests checks every read path on an absent object.
func (suite *StoreTestSuite) RunMissingTests(t *testing.T) {
	store := suite.NewStore()
	id := catalog.ContentID("datasets/none/files/absent")

	_, err := store.ReadContent(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	_, err = store.GetContentSize(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists)
}
