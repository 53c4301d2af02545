package download

import (
	"context"
	"net/url"
	"time"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/metrics"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// FileContent is the outcome of a single-file download: the permitted item
// and where its bytes can be streamed from.
type FileContent struct {
	Item     *catalog.Item
	URL      *url.URL
	Decision policy.Decision
}

// Service is the entry point of the download subsystem. Each call runs
// synchronously on the caller's goroutine; concurrent calls share nothing
// but the stores and the holding directory.
type Service struct {
	store     catalog.Store
	resolver  *Resolver
	filter    *Filter
	assembler *Assembler
	limits    Limits
	metrics   metrics.DownloadMetrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records request outcomes. Nil keeps the no-op recorder.
func WithMetrics(m metrics.DownloadMetrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService wires the download pipeline.
func NewService(store catalog.Store, p policy.Policy, assembler *Assembler, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		resolver:  NewResolver(store),
		filter:    NewFilter(p),
		assembler: assembler,
		limits:    assembler.config.Limits,
		metrics:   metrics.NewNoopDownloadMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetZippedContent resolves, filters and packages the requested items of a
// dataset into an archive.
//
// Returns:
//   - *ArchiveResult: the archive; the caller must call Cleanup once done
//   - error: one of the taxonomy errors (see KindOf)
func (s *Service) GetZippedContent(ctx context.Context, identity policy.Identity, datasetID catalog.DatasetID, requested []catalog.RequestedItem) (*ArchiveResult, error) {
	start := time.Now()
	result, err := s.getZippedContent(ctx, identity, datasetID, requested)

	s.metrics.RecordRequest("zip", KindOf(err).String(), time.Since(start))
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	s.metrics.RecordArchive(len(result.Items), result.UncompressedSize, result.Size)
	return result, nil
}

func (s *Service) getZippedContent(ctx context.Context, identity policy.Identity, datasetID catalog.DatasetID, requested []catalog.RequestedItem) (*ArchiveResult, error) {
	logger.Debug("Zip download of %d requested items from dataset %s by %q", len(requested), datasetID, identity.UserID)

	dataset, err := s.getDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	items, err := s.resolver.Resolve(ctx, requested)
	if err != nil {
		return nil, err
	}

	permitted, err := s.filter.Apply(ctx, identity, dataset, items)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 && len(permitted.Items) == 0 {
		return nil, &AuthorizationError{Message: "Insufficient rights"}
	}

	result, err := s.assembler.Build(ctx, dataset, permitted.Items)
	if err != nil {
		logger.Error("Unable to create zip file: %v", err)
		return nil, err
	}
	result.Decisions = permitted.Decisions
	return result, nil
}

// GetFileContent checks access to one file of a dataset and returns where
// to stream it from. Only the size limit applies.
func (s *Service) GetFileContent(ctx context.Context, identity policy.Identity, datasetID catalog.DatasetID, fileID catalog.ItemID) (*FileContent, error) {
	start := time.Now()
	fc, err := s.getFileContent(ctx, identity, datasetID, fileID)

	s.metrics.RecordRequest("file", KindOf(err).String(), time.Since(start))
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	return fc, nil
}

func (s *Service) getFileContent(ctx context.Context, identity policy.Identity, datasetID catalog.DatasetID, fileID catalog.ItemID) (*FileContent, error) {
	logger.Debug("File download of %s from dataset %s by %q", fileID, datasetID, identity.UserID)

	dataset, err := s.getDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	found, err := s.store.FindItems(ctx, []catalog.ItemID{fileID})
	if err != nil {
		logger.Error("Unable to get file content: %v", err)
		return nil, classify("find file", err)
	}
	if len(found) == 0 || !found[0].IsFile() || found[0].DatasetID != dataset.ID {
		return nil, &NotFoundError{What: "file", ID: string(fileID)}
	}
	item := found[0]

	decision, err := s.filter.ApplyOne(ctx, identity, dataset, item)
	if err != nil {
		return nil, err
	}
	if err := s.limits.CheckFile(item); err != nil {
		return nil, err
	}

	u, err := s.store.ContentURL(ctx, item.ID)
	if err != nil {
		logger.Error("Unable to get file content: %v", err)
		return nil, classify("content url", err)
	}
	return &FileContent{Item: item, URL: u, Decision: decision}, nil
}

func (s *Service) getDataset(ctx context.Context, id catalog.DatasetID) (*catalog.Dataset, error) {
	dataset, err := s.store.GetDataset(ctx, id)
	if catalog.IsNotFound(err) {
		return nil, &NotFoundError{What: "dataset", ID: string(id)}
	}
	if err != nil {
		return nil, classify("get dataset", err)
	}
	return dataset, nil
}

func (s *Service) recordRejection(err error) {
	switch kind := KindOf(err); kind {
	case KindTooManyFiles, KindPayloadTooLarge, KindAuthorization:
		s.metrics.RecordRejection(kind.String())
	}
}
