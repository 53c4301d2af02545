package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/marmos91/dittozip/pkg/download"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/registry"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	catalogmemory "github.com/marmos91/dittozip/pkg/store/catalog/memory"
	contentmemory "github.com/marmos91/dittozip/pkg/store/content/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a registry with one dataset holding:
//
//	data/open.csv     anonymous
//	data/known        known users only
type testEnv struct {
	adapter    *HTTPAdapter
	registry   *registry.Registry
	catalog    *catalogmemory.MemoryCatalogStore
	dataset    *catalog.Dataset
	open       *catalog.Item
	known      *catalog.Item
	folder     *catalog.Item
	holdingDir string
}

func newTestEnv(t *testing.T, limits download.Limits) *testEnv {
	t.Helper()
	ctx := context.Background()

	content, err := contentmemory.NewMemoryContentStore(ctx)
	require.NoError(t, err)
	cat := catalogmemory.NewMemoryCatalogStore()

	ds, err := cat.CreateDataset(ctx, catalog.NewDataset{Title: "Adapter Test", DepositorID: "depositor"})
	require.NoError(t, err)

	folder, err := cat.CreateFolder(ctx, ds.RootID, "data")
	require.NoError(t, err)

	addFile := func(name, data string, access catalog.AccessCategory) *catalog.Item {
		id := catalog.ContentID("content/" + name)
		require.NoError(t, content.WriteContent(ctx, id, []byte(data)))
		item, err := cat.CreateFile(ctx, folder.ID, catalog.NewFile{
			Name:         name,
			Size:         int64(len(data)),
			Checksum:     "da39a3ee5e6b4b0d3255bfef95601890afd80709",
			ContentID:    id,
			AccessibleTo: access,
		})
		require.NoError(t, err)
		return item
	}
	open := addFile("open.csv", "a,b\n1,2\n", catalog.AccessAnonymous)
	known := addFile("known", "secret", catalog.AccessKnown)

	reg := registry.NewRegistry(cat, content, nil)
	t.Cleanup(func() { _ = reg.Close() })

	holdingDir := filepath.Join(t.TempDir(), "holding")
	assembler := download.NewAssembler(reg.Catalog(), reg.Opener(), download.AssemblerConfig{
		Limits:     limits,
		HoldingDir: holdingDir,
		TempDir:    t.TempDir(),
	})
	require.NoError(t, reg.SetService(download.NewService(reg.Catalog(), policy.NewAccessPolicy(), assembler)))

	a := New(HTTPConfig{Enabled: true}, nil)
	a.SetRegistry(reg)

	return &testEnv{
		adapter:    a,
		registry:   reg,
		catalog:    cat,
		dataset:    ds,
		open:       open,
		known:      known,
		folder:     folder,
		holdingDir: holdingDir,
	}
}

func (e *testEnv) zipRequest(t *testing.T, user string, items ...requestedItem) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(zipRequest{Items: items})
	require.NoError(t, err)
	return e.do(t, nethttp.MethodPost, "/datasets/"+string(e.dataset.ID)+"/zip", user, bytes.NewReader(body))
}

func (e *testEnv) do(t *testing.T, method, target, user string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if user != "" {
		req.Header.Set(HeaderUser, user)
	}
	rec := httptest.NewRecorder()
	e.adapter.Handler().ServeHTTP(rec, req)
	return rec
}

func dirEntriesOf(t *testing.T, dir string) []string {
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

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New(HTTPConfig{Port: 8080}, nil)

	assert.Equal(t, "HTTP", a.Protocol())
	assert.Equal(t, 8080, a.Port())
	assert.Equal(t, 30*time.Second, a.config.ReadTimeout)
	assert.Equal(t, 30*time.Second, a.config.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), a.config.MaxRequestBytes)
	assert.Empty(t, a.Addr())
}

func TestNewPanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() { New(HTTPConfig{Port: 70000}, nil) })
	assert.Panics(t, func() { New(HTTPConfig{ReadTimeout: -time.Second}, nil) })
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, download.Limits{})

	rec := env.do(t, nethttp.MethodGet, "/healthz", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, env.catalog.Close())
	rec = env.do(t, nethttp.MethodGet, "/healthz", "", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
}

func TestDownloadZip(t *testing.T) {
	t.Run("AnonymousGetsPermittedSubset", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.zipRequest(t, "", requestedItem{ID: string(env.folder.ID)})
		require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "-Adapter_Test.zip")
		assert.Equal(t, fmt.Sprint(rec.Body.Len()), rec.Header().Get("Content-Length"))

		names := zipNames(t, rec.Body.Bytes())
		assert.Contains(t, names, "data/open.csv")
		assert.NotContains(t, names, "data/known")
		assert.Contains(t, names, "manifest-sha1.txt")

		assert.Empty(t, dirEntriesOf(t, env.holdingDir), "archive must be removed after streaming")
	})

	t.Run("KnownUserGetsEverything", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.zipRequest(t, "alice", requestedItem{ID: string(env.folder.ID)})
		require.Equal(t, nethttp.StatusOK, rec.Code)

		names := zipNames(t, rec.Body.Bytes())
		assert.Contains(t, names, "data/open.csv")
		assert.Contains(t, names, "data/known")
	})

	t.Run("NothingPermittedIsForbidden", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.zipRequest(t, "", requestedItem{ID: string(env.known.ID), IsFile: true})
		assert.Equal(t, nethttp.StatusForbidden, rec.Code)
		assert.Equal(t, "authorization", decodeError(t, rec).Error)
	})

	t.Run("UnknownDatasetIsNotFound", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.do(t, nethttp.MethodPost, "/datasets/missing/zip", "", strings.NewReader(`{"items":[]}`))
		assert.Equal(t, nethttp.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).Error)
	})

	t.Run("RateLimitedPerClient", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})
		env.adapter = New(HTTPConfig{Enabled: true, ZipRateLimit: 1}, nil)
		env.adapter.SetRegistry(env.registry)

		item := requestedItem{ID: string(env.open.ID), IsFile: true}
		assert.Equal(t, nethttp.StatusOK, env.zipRequest(t, "alice", item).Code)

		rec := env.zipRequest(t, "alice", item)
		assert.Equal(t, nethttp.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Equal(t, "rate_limited", decodeError(t, rec).Error)

		assert.Equal(t, nethttp.StatusOK, env.zipRequest(t, "bob", item).Code)
	})

	t.Run("TooManyFiles", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{MaxFiles: 1})

		rec := env.zipRequest(t, "alice", requestedItem{ID: string(env.folder.ID)})
		assert.Equal(t, nethttp.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "too_many_files", decodeError(t, rec).Error)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.do(t, nethttp.MethodPost, "/datasets/"+string(env.dataset.ID)+"/zip", "", strings.NewReader("{"))
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeError(t, rec).Error)
	})

	t.Run("MissingItemID", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.zipRequest(t, "", requestedItem{IsFile: true})
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})
		env.adapter.config.MaxRequestBytes = 16

		rec := env.zipRequest(t, "", requestedItem{ID: string(env.folder.ID)})
		assert.Equal(t, nethttp.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "invalid_request", decodeError(t, rec).Error)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		env := newTestEnv(t, download.Limits{})

		rec := env.do(t, nethttp.MethodGet, "/datasets/"+string(env.dataset.ID)+"/zip", "", nil)
		assert.Equal(t, nethttp.StatusMethodNotAllowed, rec.Code)
	})
}

func TestDownloadFile(t *testing.T) {
	env := newTestEnv(t, download.Limits{})
	base := "/datasets/" + string(env.dataset.ID) + "/files/"

	t.Run("Permitted", func(t *testing.T) {
		rec := env.do(t, nethttp.MethodGet, base+string(env.open.ID), "", nil)
		require.Equal(t, nethttp.StatusOK, rec.Code)
		assert.Equal(t, "a,b\n1,2\n", rec.Body.String())
		assert.Equal(t, `attachment; filename=open.csv`, rec.Header().Get("Content-Disposition"))
		assert.NotEmpty(t, rec.Header().Get("Content-Type"))
	})

	t.Run("Denied", func(t *testing.T) {
		rec := env.do(t, nethttp.MethodGet, base+string(env.known.ID), "", nil)
		assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	})

	t.Run("KnownUser", func(t *testing.T) {
		rec := env.do(t, nethttp.MethodGet, base+string(env.known.ID), "bob", nil)
		require.Equal(t, nethttp.StatusOK, rec.Code)
		assert.Equal(t, "secret", rec.Body.String())
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	})

	t.Run("Missing", func(t *testing.T) {
		rec := env.do(t, nethttp.MethodGet, base+"missing", "", nil)
		assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	})
}

func TestServiceNotRegistered(t *testing.T) {
	ctx := context.Background()
	content, err := contentmemory.NewMemoryContentStore(ctx)
	require.NoError(t, err)
	reg := registry.NewRegistry(catalogmemory.NewMemoryCatalogStore(), content, nil)
	t.Cleanup(func() { _ = reg.Close() })

	a := New(HTTPConfig{}, nil)
	a.SetRegistry(reg)

	req := httptest.NewRequest(nethttp.MethodPost, "/datasets/x/zip", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind download.Kind
		want int
	}{
		{download.KindAuthorization, nethttp.StatusForbidden},
		{download.KindNotFound, nethttp.StatusNotFound},
		{download.KindTooManyFiles, nethttp.StatusRequestEntityTooLarge},
		{download.KindPayloadTooLarge, nethttp.StatusRequestEntityTooLarge},
		{download.KindStoreAccess, nethttp.StatusServiceUnavailable},
		{download.KindProcessing, nethttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestWriteDownloadErrorHidesProcessingDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDownloadError(rec, &download.ProcessingError{Op: "write archive", Err: fmt.Errorf("disk full at /var/holding")})

	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Unable to create zip file", resp.Message)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "addr:192.0.2.7", clientKey(req))

	req.Header.Set(HeaderUser, "alice")
	assert.Equal(t, "user:alice", clientKey(req))
}

func TestIdentityFromRequest(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodGet, "/", nil)
	assert.True(t, identityFromRequest(req).IsAnonymous())

	req.Header.Set(HeaderUser, " carol ")
	req.Header.Set(HeaderRoles, "archivist, ,admin")
	req.Header.Add(HeaderGroups, "g1")
	req.Header.Add(HeaderGroups, "g2,g3")
	req.Header.Set(HeaderGrants, "ds-1")

	identity := identityFromRequest(req)
	assert.Equal(t, "carol", identity.UserID)
	assert.Equal(t, []string{"archivist", "admin"}, identity.Roles)
	assert.Equal(t, []string{"g1", "g2", "g3"}, identity.Groups)
	assert.Equal(t, []catalog.DatasetID{"ds-1"}, identity.Grants)
}

func TestServeAndStop(t *testing.T) {
	env := newTestEnv(t, download.Limits{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- env.adapter.Serve(ctx) }()

	require.Eventually(t, func() bool { return env.adapter.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	client := &nethttp.Client{Transport: &nethttp.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + env.adapter.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, env.adapter.Stop(stopCtx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t, download.Limits{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- env.adapter.Serve(ctx) }()
	require.Eventually(t, func() bool { return env.adapter.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeRequiresRegistry(t *testing.T) {
	a := New(HTTPConfig{}, nil)
	assert.Error(t, a.Serve(context.Background()))
}
