package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/fetch"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Compression selects how file entries are compressed.
type Compression string

const (
	CompressionDeflate Compression = "deflate"
	CompressionStore   Compression = "store"
	CompressionZstd    Compression = "zstd"
)

// AssemblerConfig carries the settings of the archive assembler.
type AssemblerConfig struct {
	// Limits are enforced before any archive work starts.
	Limits Limits

	// HoldingDir receives the produced archives.
	HoldingDir string

	// TempDir receives the generated manifest documents. Empty means the
	// OS temporary directory.
	TempDir string

	// GeneralConditionsPath overrides the built-in general conditions
	// document.
	GeneralConditionsPath string

	// Compression defaults to deflate.
	Compression Compression
}

// ArchiveResult describes a materialized archive. The caller owns Path and
// every entry of TempFiles and must remove them (see Cleanup).
type ArchiveResult struct {
	Path     string
	Filename string

	// Items are the descriptors included in the archive, in archive order.
	Items []*catalog.Item

	// Decisions holds the access decisions taken while filtering.
	Decisions policy.Decisions

	// TempFiles lists the generated documents streamed into the archive.
	TempFiles []string

	// Size is the archive size on disk.
	Size int64

	// UncompressedSize is the summed size of the included files.
	UncompressedSize int64

	// Entries is the number of archive members.
	Entries int
}

// Cleanup removes the archive and the generated documents.
func (r *ArchiveResult) Cleanup() error {
	var errs []error
	for _, path := range append([]string{r.Path}, r.TempFiles...) {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Assembler builds archives out of permitted items.
type Assembler struct {
	config            AssemblerConfig
	store             catalog.Store
	opener            fetch.Opener
	collector         *MetadataCollector
	generalConditions []byte
	now               func() time.Time
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithGeneralConditions replaces the built-in general conditions document.
// An empty document is treated as missing.
func WithGeneralConditions(data []byte) AssemblerOption {
	return func(a *Assembler) {
		a.generalConditions = data
	}
}

// WithAssemblerClock sets the clock used for entry timestamps.
func WithAssemblerClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(store catalog.Store, opener fetch.Opener, config AssemblerConfig, opts ...AssemblerOption) *Assembler {
	if config.Compression == "" {
		config.Compression = CompressionDeflate
	}

	a := &Assembler{
		config:            config,
		store:             store,
		opener:            opener,
		collector:         NewMetadataCollector(store, opener),
		generalConditions: embeddedGeneralConditions,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build materializes an archive for the permitted items of dataset.
//
// Steps, in order:
//  1. enforce the count and size limits
//  2. build one entry per item
//  3. add the general conditions (a missing document is logged and skipped)
//  4. add the dataset's additional license, if any
//  5. add the aggregated descriptive metadata when files are present
//  6. add the checksum manifest
//  7. write everything into a new archive in the holding directory
//
// Any failure removes the partial archive and the generated documents.
func (a *Assembler) Build(ctx context.Context, dataset *catalog.Dataset, items []*catalog.Item) (result *ArchiveResult, err error) {
	// ========================================================================
	// Step 1: Limits
	// ========================================================================

	if err := a.config.Limits.Check(items); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Item entries
	// ========================================================================

	entries, totalSize, err := a.buildEntries(ctx, items)
	if err != nil {
		return nil, err
	}
	logger.Debug("Total size unzipped %s", humanize.IBytes(uint64(totalSize)))

	var tempFiles []string
	defer func() {
		if err != nil {
			removeAll(tempFiles)
		}
	}()

	// ========================================================================
	// Step 3: General conditions
	// ========================================================================

	if entry, ok := a.generalConditionsEntry(); ok {
		entries = append(entries, entry)
	}

	// ========================================================================
	// Step 4: Additional license
	// ========================================================================

	licenseURL, hasLicense, err := a.store.AdditionalLicenseURL(ctx, dataset.ID)
	if err != nil {
		return nil, classify("additional license", err)
	}
	if hasLicense {
		name := dataset.LicenseName
		if name == "" {
			name = defaultAdditionalLicense
		}
		entries = append(entries, Entry{Path: metadataDir + filepath.Base(name), Kind: EntryFile, URL: licenseURL})
	}

	// ========================================================================
	// Step 5: Descriptive metadata
	// ========================================================================

	metaPath, hasFiles, err := a.writeTemp("meta-*.xml", func(w io.Writer) (bool, error) {
		return a.collector.Collect(ctx, w, items)
	})
	if metaPath != "" {
		tempFiles = append(tempFiles, metaPath)
	}
	if err != nil {
		return nil, classify("descriptive metadata", err)
	}
	if hasFiles {
		entries = append(entries, Entry{Path: descriptiveMetadataPath, Kind: EntryFile, URL: fetch.FileURL(metaPath)})
	} else {
		removeAll(tempFiles)
		tempFiles = nil
	}

	// ========================================================================
	// Step 6: Checksum manifest
	// ========================================================================

	manifestPath, _, err := a.writeTemp("manifest-sha1-*.txt", func(w io.Writer) (bool, error) {
		_, err := WriteChecksumManifest(w, items)
		return true, err
	})
	if manifestPath != "" {
		tempFiles = append(tempFiles, manifestPath)
	}
	if err != nil {
		return nil, classify("checksum manifest", err)
	}
	entries = append(entries, Entry{Path: checksumManifestPath, Kind: EntryFile, URL: fetch.FileURL(manifestPath)})

	// ========================================================================
	// Step 7: Materialize
	// ========================================================================

	archivePath, size, err := a.writeArchive(ctx, entries)
	if err != nil {
		return nil, classify("write archive", err)
	}

	logger.Info("Created archive %s with %d entries (%s)", filepath.Base(archivePath), len(entries), humanize.IBytes(uint64(size)))
	return &ArchiveResult{
		Path:             archivePath,
		Filename:         ArchiveFilename(a.now(), dataset.Title),
		Items:            items,
		TempFiles:        tempFiles,
		Size:             size,
		UncompressedSize: totalSize,
		Entries:          len(entries),
	}, nil
}

func (a *Assembler) generalConditionsEntry() (Entry, bool) {
	if a.config.GeneralConditionsPath != "" {
		if _, err := os.Stat(a.config.GeneralConditionsPath); err != nil {
			logger.Error("No %s found at %s: %v", GeneralConditionsName, a.config.GeneralConditionsPath, err)
			return Entry{}, false
		}
		abs, err := filepath.Abs(a.config.GeneralConditionsPath)
		if err != nil {
			logger.Error("No %s found: %v", GeneralConditionsName, err)
			return Entry{}, false
		}
		return Entry{Path: generalConditionsPath, Kind: EntryFile, URL: fetch.FileURL(abs)}, true
	}

	if len(a.generalConditions) == 0 {
		logger.Error("No %s found", GeneralConditionsName)
		return Entry{}, false
	}
	return Entry{Path: generalConditionsPath, Kind: EntryDocument, Data: a.generalConditions}, true
}

// writeTemp creates a temporary file in TempDir and fills it with fn. The
// path is returned even on failure so the caller can remove it.
func (a *Assembler) writeTemp(pattern string, fn func(w io.Writer) (bool, error)) (string, bool, error) {
	f, err := os.CreateTemp(a.config.TempDir, pattern)
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp file: %w", err)
	}

	ok, err := fn(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return f.Name(), ok, err
}

func (a *Assembler) writeArchive(ctx context.Context, entries []Entry) (string, int64, error) {
	if err := os.MkdirAll(a.config.HoldingDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create holding directory: %w", err)
	}

	f, err := os.CreateTemp(a.config.HoldingDir, "dittozip-*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create archive: %w", err)
	}
	path := f.Name()

	fail := func(err error) (string, int64, error) {
		_ = f.Close()
		_ = os.Remove(path)
		return "", 0, err
	}

	zw := zip.NewWriter(f)
	method := zip.Deflate
	switch a.config.Compression {
	case CompressionStore:
		method = zip.Store
	case CompressionZstd:
		method = zstd.ZipMethodWinZip
		zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	}

	written := make(map[string]struct{}, len(entries))
	modified := a.now()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		name := strings.TrimPrefix(entry.Path, "/")
		if entry.Kind == EntryFolder {
			name = strings.TrimSuffix(name, "/") + "/"
		}
		if _, dup := written[name]; dup {
			return fail(fmt.Errorf("duplicate archive path %q", name))
		}
		written[name] = struct{}{}

		if err := a.writeEntry(ctx, zw, name, method, modified, entry); err != nil {
			return fail(err)
		}
	}

	if err := zw.Close(); err != nil {
		return fail(fmt.Errorf("failed to finish archive: %w", err))
	}
	info, err := f.Stat()
	if err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to close archive: %w", err)
	}
	return path, info.Size(), nil
}

func (a *Assembler) writeEntry(ctx context.Context, zw *zip.Writer, name string, method uint16, modified time.Time, entry Entry) error {
	header := &zip.FileHeader{Name: name, Method: method, Modified: modified}
	if entry.Kind == EntryFolder {
		header.Method = zip.Store
		_, err := zw.CreateHeader(header)
		return err
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	if entry.Kind == EntryDocument {
		_, err := w.Write(entry.Data)
		return err
	}

	rc, err := a.opener.Open(ctx, entry.URL)
	if err != nil {
		return fmt.Errorf("unreachable content for %s: %w", name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

func removeAll(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove temp file %s: %v", path, err)
		}
	}
}
