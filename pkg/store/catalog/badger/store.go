package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// BadgerCatalogStore implements catalog.WritableStore using BadgerDB for persistence.
//
// The catalog survives restarts, so a repository can be imported once and
// served many times.
//
// Thread Safety:
// BadgerDB transactions provide isolation. Writes that check then insert a
// child name run inside a single Update transaction; conflicting concurrent
// writers get badger.ErrConflict which is reported as ErrIOError.
//
// Storage Model:
// See keys.go for the key namespaces and serialization.go for value encoding.
type BadgerCatalogStore struct {
	db  *badger.DB
	now func() time.Time
}

// BadgerCatalogStoreConfig contains configuration for the BadgerDB catalog store.
type BadgerCatalogStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files
	DBPath string `mapstructure:"db_path"`

	// InMemory keeps the whole database in memory (DBPath is ignored)
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// NewBadgerCatalogStore opens (or creates) a catalog at config.DBPath.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: database location and cache sizes
//
// Returns:
//   - *BadgerCatalogStore: store ready for use
//   - error: if the database cannot be opened or ctx is cancelled
func NewBadgerCatalogStore(ctx context.Context, config BadgerCatalogStoreConfig) (*BadgerCatalogStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerCatalogStore{db: db, now: time.Now}, nil
}

// Close flushes and closes the database.
func (s *BadgerCatalogStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// Healthcheck runs a trivial read transaction.
func (s *BadgerCatalogStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return catalog.NewError(catalog.ErrUnavailable, "catalog database is closed", "")
	}
	return s.view(func(txn *badger.Txn) error {
		return nil
	})
}

// view wraps db.View and maps infrastructure errors onto StoreError.
func (s *BadgerCatalogStore) view(fn func(txn *badger.Txn) error) error {
	if s.db.IsClosed() {
		return catalog.NewError(catalog.ErrUnavailable, "catalog database is closed", "")
	}
	return mapError(s.db.View(fn))
}

func (s *BadgerCatalogStore) update(fn func(txn *badger.Txn) error) error {
	if s.db.IsClosed() {
		return catalog.NewError(catalog.ErrUnavailable, "catalog database is closed", "")
	}
	return mapError(s.db.Update(fn))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var storeErr *catalog.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return catalog.NewError(catalog.ErrUnavailable, "catalog database is closed", "")
	}
	return &catalog.StoreError{Code: catalog.ErrIOError, Message: "badger: " + err.Error()}
}

func newID() string {
	return uuid.New().String()
}
