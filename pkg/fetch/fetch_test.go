package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
	"github.com/marmos91/dittozip/pkg/store/content/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestMuxContentScheme(t *testing.T) {
	ctx := context.Background()
	store, err := memory.NewMemoryContentStore(ctx)
	require.NoError(t, err)
	require.NoError(t, store.WriteContent(ctx, "blob-1", []byte("hello")))

	mux := NewDefaultMux(store, nil)

	rc, err := mux.Open(ctx, catalog.NewContentURL("blob-1"))
	require.NoError(t, err)
	assert.Equal(t, "hello", readAll(t, rc))

	_, err = mux.Open(ctx, catalog.NewContentURL("missing"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func TestMuxFileScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.txt")
	require.NoError(t, os.WriteFile(path, []byte("line\n"), 0644))

	mux := NewDefaultMux(nil, nil)
	rc, err := mux.Open(context.Background(), FileURL(path))
	require.NoError(t, err)
	assert.Equal(t, "line\n", readAll(t, rc))

	_, err = mux.Open(context.Background(), FileURL(filepath.Join(t.TempDir(), "gone")))
	assert.Error(t, err)
}

func TestMuxHTTPScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	mux := NewDefaultMux(nil, srv.Client())

	u, err := url.Parse(srv.URL + "/doc")
	require.NoError(t, err)
	rc, err := mux.Open(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "remote", readAll(t, rc))

	u, err = url.Parse(srv.URL + "/missing")
	require.NoError(t, err)
	_, err = mux.Open(context.Background(), u)
	assert.Error(t, err)
}

func TestMuxUnsupportedScheme(t *testing.T) {
	mux := NewMux()
	u, err := url.Parse("ftp://example.org/x")
	require.NoError(t, err)

	_, err = mux.Open(context.Background(), u)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = mux.Open(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
