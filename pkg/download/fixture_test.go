package download

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/fetch"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	catalogmemory "github.com/marmos91/dittozip/pkg/store/catalog/memory"
	contentmemory "github.com/marmos91/dittozip/pkg/store/content/memory"
	"github.com/stretchr/testify/require"
)

const (
	testTitle    = "My Long Test Dataset Name For Zips"
	testChecksum = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
)

var testNow = time.UnixMilli(1700000000000)

// fixture is a dataset backed by in-memory catalog and content stores.
type fixture struct {
	t       *testing.T
	ctx     context.Context
	catalog *catalogmemory.MemoryCatalogStore
	content *contentmemory.MemoryContentStore
	opener  *fetch.Mux
	dataset *catalog.Dataset

	holdingDir string
	tempDir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	content, err := contentmemory.NewMemoryContentStore(ctx)
	require.NoError(t, err)

	cat := catalogmemory.NewMemoryCatalogStore()
	t.Cleanup(func() { _ = cat.Close() })

	ds, err := cat.CreateDataset(ctx, catalog.NewDataset{Title: testTitle, DepositorID: "depositor"})
	require.NoError(t, err)

	return &fixture{
		t:          t,
		ctx:        ctx,
		catalog:    cat,
		content:    content,
		opener:     fetch.NewDefaultMux(content, nil),
		dataset:    ds,
		holdingDir: filepath.Join(t.TempDir(), "holding"),
		tempDir:    t.TempDir(),
	}
}

func (f *fixture) root() catalog.ItemID {
	return f.dataset.RootID
}

func (f *fixture) folder(parent catalog.ItemID, name string) *catalog.Item {
	f.t.Helper()
	item, err := f.catalog.CreateFolder(f.ctx, parent, name)
	require.NoError(f.t, err)
	return item
}

// file creates a file whose declared size is size and whose stored bytes
// are data. The two are independent so limits can be tested cheaply.
func (f *fixture) file(parent catalog.ItemID, name string, size int64, data string) *catalog.Item {
	f.t.Helper()
	return f.fileWithAccess(parent, name, size, data, catalog.AccessAnonymous)
}

func (f *fixture) fileWithAccess(parent catalog.ItemID, name string, size int64, data string, access catalog.AccessCategory) *catalog.Item {
	f.t.Helper()
	contentID := catalog.ContentID("content/" + string(parent) + "/" + name)
	require.NoError(f.t, f.content.WriteContent(f.ctx, contentID, []byte(data)))

	item, err := f.catalog.CreateFile(f.ctx, parent, catalog.NewFile{
		Name:         name,
		Size:         size,
		Checksum:     testChecksum,
		ContentID:    contentID,
		AccessibleTo: access,
	})
	require.NoError(f.t, err)
	return item
}

func (f *fixture) metadata(file *catalog.Item, doc string) {
	f.t.Helper()
	id := catalog.ContentID("metadata/" + string(file.ID))
	require.NoError(f.t, f.content.WriteContent(f.ctx, id, []byte(doc)))
	require.NoError(f.t, f.catalog.SetDescriptiveMetadata(f.ctx, file.ID, id))
}

func (f *fixture) license(name, doc string) {
	f.t.Helper()
	id := catalog.ContentID("license/" + string(f.dataset.ID))
	require.NoError(f.t, f.content.WriteContent(f.ctx, id, []byte(doc)))
	require.NoError(f.t, f.catalog.SetAdditionalLicense(f.ctx, f.dataset.ID, name, id))

	ds, err := f.catalog.GetDataset(f.ctx, f.dataset.ID)
	require.NoError(f.t, err)
	f.dataset = ds
}

func (f *fixture) config() AssemblerConfig {
	return AssemblerConfig{HoldingDir: f.holdingDir, TempDir: f.tempDir}
}

func (f *fixture) assembler(config AssemblerConfig, opts ...AssemblerOption) *Assembler {
	opts = append([]AssemblerOption{WithAssemblerClock(func() time.Time { return testNow })}, opts...)
	return NewAssembler(f.catalog, f.opener, config, opts...)
}

func (f *fixture) service(limits Limits, opts ...ServiceOption) *Service {
	config := f.config()
	config.Limits = limits
	p := policy.NewAccessPolicy(policy.WithClock(func() time.Time { return testNow }))
	return NewService(f.catalog, p, f.assembler(config), opts...)
}

// dirEntries lists the names in dir; a missing dir has none.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// archive is the decoded content of a produced zip file.
type archive struct {
	names   []string
	files   map[string]string
	methods map[string]uint16
}

func readArchive(t *testing.T, path string) *archive {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	a := &archive{files: make(map[string]string), methods: make(map[string]uint16)}
	for _, zf := range zr.File {
		a.names = append(a.names, zf.Name)
		a.methods[zf.Name] = zf.Method

		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		a.files[zf.Name] = string(data)
	}
	return a
}

func (a *archive) sortedNames() []string {
	names := append([]string(nil), a.names...)
	sort.Strings(names)
	return names
}

// captureLogs redirects the global logger to a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf, "json")
	t.Cleanup(func() { logger.SetOutput(os.Stderr, "text") })
	return &buf
}

func ids(items []*catalog.Item) []catalog.ItemID {
	out := make([]catalog.ItemID, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
