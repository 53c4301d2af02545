package prometheus

import (
	"time"

	"github.com/marmos91/dittozip/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// downloadMetrics is the Prometheus implementation of metrics.DownloadMetrics.
type downloadMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	archiveItems      prometheus.Histogram
	uncompressedBytes prometheus.Histogram
	archiveBytes      prometheus.Histogram
	rejectionsTotal   *prometheus.CounterVec
}

// NewDownloadMetrics creates a Prometheus-backed DownloadMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewDownloadMetrics() metrics.DownloadMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopDownloadMetrics()
	}
	return newDownloadMetrics(metrics.GetRegistry())
}

func newDownloadMetrics(reg prometheus.Registerer) *downloadMetrics {
	sizeBuckets := prometheus.ExponentialBuckets(1<<20, 4, 8) // 1MiB .. 16GiB

	return &downloadMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittozip_download_requests_total",
				Help: "Total number of download requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittozip_download_request_duration_seconds",
				Help: "Duration of download requests in seconds",
				Buckets: []float64{
					0.01, // 10ms
					0.1,  // 100ms
					1,    // 1s
					10,   // 10s
					60,   // 1m
					600,  // 10m
				},
			},
			[]string{"operation"},
		),
		archiveItems: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittozip_archive_items",
				Help:    "Number of items included per archive",
				Buckets: []float64{1, 10, 100, 500, 1000, 5000},
			},
		),
		uncompressedBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittozip_archive_uncompressed_bytes",
				Help:    "Summed size of the files included per archive",
				Buckets: sizeBuckets,
			},
		),
		archiveBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittozip_archive_bytes",
				Help:    "Size of produced archives",
				Buckets: sizeBuckets,
			},
		),
		rejectionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittozip_download_rejections_total",
				Help: "Downloads refused before archive construction by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *downloadMetrics) RecordRequest(operation, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *downloadMetrics) RecordArchive(items int, uncompressedBytes, archiveBytes int64) {
	m.archiveItems.Observe(float64(items))
	m.uncompressedBytes.Observe(float64(uncompressedBytes))
	m.archiveBytes.Observe(float64(archiveBytes))
}

func (m *downloadMetrics) RecordRejection(reason string) {
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}
