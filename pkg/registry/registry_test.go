package registry

import (
	"context"
	"io"
	"testing"

	"github.com/marmos91/dittozip/pkg/download"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	catalogmemory "github.com/marmos91/dittozip/pkg/store/catalog/memory"
	contentmemory "github.com/marmos91/dittozip/pkg/store/content/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *catalogmemory.MemoryCatalogStore) {
	t.Helper()
	contentStore, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)

	catalogStore := catalogmemory.NewMemoryCatalogStore()
	return NewRegistry(catalogStore, contentStore, nil), catalogStore
}

func TestRegistryService(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Service()
	assert.Error(t, err)
	assert.Error(t, reg.SetService(nil))

	asm := download.NewAssembler(reg.Catalog(), reg.Opener(), download.AssemblerConfig{HoldingDir: t.TempDir()})
	svc := download.NewService(reg.Catalog(), policy.NewAccessPolicy(), asm)
	require.NoError(t, reg.SetService(svc))
	assert.Error(t, reg.SetService(svc), "service can only be registered once")

	got, err := reg.Service()
	require.NoError(t, err)
	assert.Same(t, svc, got)
}

func TestRegistryOpenerReadsContentStore(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	writable := reg.Content().(*contentmemory.MemoryContentStore)
	require.NoError(t, writable.WriteContent(ctx, "blob", []byte("hello")))

	rc, err := reg.Opener().Open(ctx, catalog.NewContentURL("blob"))
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRegistryClose(t *testing.T) {
	reg, catalogStore := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Healthcheck(ctx))
	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	assert.True(t, catalog.IsCode(catalogStore.Healthcheck(ctx), catalog.ErrUnavailable))
	_, err := reg.Service()
	assert.Error(t, err)
}

func TestNewRegistryPanicsOnNilStores(t *testing.T) {
	contentStore, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)

	assert.Panics(t, func() { NewRegistry(nil, contentStore, nil) })
	assert.Panics(t, func() { NewRegistry(catalogmemory.NewMemoryCatalogStore(), nil, nil) })
}
