package metrics

import (
	"time"
)

// DownloadMetrics records the outcome of download requests.
//
// This interface is optional - if not provided to the download service,
// requests proceed without metrics collection.
type DownloadMetrics interface {
	// RecordRequest records a finished request.
	//
	// Parameters:
	//   - operation: "zip" or "file"
	//   - outcome: "ok" or the error kind (e.g. "too_many_files")
	//   - duration: time taken to serve the request
	RecordRequest(operation, outcome string, duration time.Duration)

	// RecordArchive records a produced archive.
	//
	// Parameters:
	//   - items: number of items included
	//   - uncompressedBytes: summed size of the included files
	//   - archiveBytes: size of the archive on disk
	RecordArchive(items int, uncompressedBytes, archiveBytes int64)

	// RecordRejection records a request refused before archive work
	// (limits exceeded or nothing permitted).
	RecordRejection(reason string)
}

// NewNoopDownloadMetrics returns a DownloadMetrics that does nothing.
func NewNoopDownloadMetrics() DownloadMetrics {
	return noopDownloadMetrics{}
}

// noopDownloadMetrics is a no-op implementation of DownloadMetrics with zero overhead.
type noopDownloadMetrics struct{}

func (noopDownloadMetrics) RecordRequest(operation, outcome string, duration time.Duration) {}
func (noopDownloadMetrics) RecordArchive(items int, uncompressedBytes, archiveBytes int64)  {}
func (noopDownloadMetrics) RecordRejection(reason string)                                  {}
