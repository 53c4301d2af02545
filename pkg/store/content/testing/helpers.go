package testing

import (
	"io"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
	"github.com/stretchr/testify/require"
)

func patterned(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func write(t *testing.T, store content.WritableContentStore, id catalog.ContentID, data []byte) {
	t.Helper()
	require.NoError(t, store.WriteContent(testContext(), id, data))
}

func read(t *testing.T, store content.ContentStore, id catalog.ContentID) []byte {
	t.Helper()
	rc, err := store.ReadContent(testContext(), id)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}
