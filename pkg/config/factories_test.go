package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

func TestCreateContentStore_Filesystem(t *testing.T) {
	ctx := context.Background()
	cfg := &ContentConfig{
		Type: "filesystem",
		Filesystem: map[string]any{
			"path": t.TempDir(),
		},
	}

	store, err := CreateContentStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem content store: %v", err)
	}

	if err := store.WriteContent(ctx, "a/b", []byte("data")); err != nil {
		t.Fatalf("Failed to write content: %v", err)
	}
	exists, err := store.ContentExists(ctx, "a/b")
	if err != nil || !exists {
		t.Fatalf("Expected written content to exist: exists=%v err=%v", exists, err)
	}
}

func TestCreateContentStore_FilesystemMissingPath(t *testing.T) {
	ctx := context.Background()
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{},
	}

	_, err := CreateContentStore(ctx, cfg)
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateContentStore_Memory(t *testing.T) {
	store, err := CreateContentStore(context.Background(), &ContentConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory content store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateContentStore_UnknownType(t *testing.T) {
	_, err := CreateContentStore(context.Background(), &ContentConfig{Type: "ftp"})
	if err == nil {
		t.Fatal("Expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "unknown content store type") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDecodeS3Options(t *testing.T) {
	opts, err := decodeS3Options(map[string]any{
		"bucket":     "datasets",
		"region":     "eu-west-1",
		"key_prefix": "content/",
		"endpoint":   "http://localhost:9000",
	})
	if err != nil {
		t.Fatalf("Failed to decode options: %v", err)
	}
	if opts.Bucket != "datasets" || opts.Region != "eu-west-1" || opts.KeyPrefix != "content/" {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.MaxRetries != 10 {
		t.Errorf("Expected default max_retries 10, got %d", opts.MaxRetries)
	}
}

func TestCreateContentStore_S3MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		want    string
	}{
		{"MissingBucket", map[string]any{"region": "us-east-1"}, "bucket is required"},
		{"MissingRegion", map[string]any{"bucket": "b"}, "region is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateContentStore(context.Background(), &ContentConfig{Type: "s3", S3: tt.options})
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestCreateContentStore_S3SkipBucketCheck(t *testing.T) {
	store, err := CreateContentStore(context.Background(), &ContentConfig{
		Type: "s3",
		S3: map[string]any{
			"bucket":            "datasets",
			"region":            "us-east-1",
			"endpoint":          "http://127.0.0.1:1",
			"access_key_id":     "key",
			"secret_access_key": "secret",
			"skip_bucket_check": true,
		},
	})
	if err != nil {
		t.Fatalf("Failed to create S3 content store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateCatalogStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := CreateCatalogStore(ctx, &CatalogConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory catalog store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.CreateDataset(ctx, catalog.NewDataset{Title: "t"}); err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
}

func TestCreateCatalogStore_Badger(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog")

	store, err := CreateCatalogStore(ctx, &CatalogConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": dbPath},
	})
	if err != nil {
		t.Fatalf("Failed to create badger catalog store: %v", err)
	}

	ds, err := store.CreateDataset(ctx, catalog.NewDataset{Title: "persisted"})
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := CreateCatalogStore(ctx, &CatalogConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": dbPath},
	})
	if err != nil {
		t.Fatalf("Failed to reopen badger catalog store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("Dataset not persisted: %v", err)
	}
	if got.Title != "persisted" {
		t.Errorf("Unexpected title %q", got.Title)
	}
}

func TestCreateCatalogStore_BadgerMissingPath(t *testing.T) {
	_, err := CreateCatalogStore(context.Background(), &CatalogConfig{Type: "badger", Badger: map[string]any{}})
	if err == nil {
		t.Fatal("Expected error for missing db_path")
	}
	if !strings.Contains(err.Error(), "db_path is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCreateCatalogStore_UnknownType(t *testing.T) {
	if _, err := CreateCatalogStore(context.Background(), &CatalogConfig{Type: "sql"}); err == nil {
		t.Fatal("Expected error for unknown type")
	}
}
