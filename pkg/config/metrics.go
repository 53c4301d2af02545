package config

import (
	"github.com/marmos91/dittozip/pkg/metrics"
	promMetrics "github.com/marmos91/dittozip/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Download is the collector for the download service (never nil, uses noop if disabled)
	Download metrics.DownloadMetrics

	// HTTP is the collector for the HTTP adapter (never nil, uses noop if disabled)
	HTTP metrics.HTTPMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			Download: metrics.NewNoopDownloadMetrics(),
			HTTP:     metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Server.Metrics.Port,
	})

	return &MetricsResult{
		Server:   server,
		Download: promMetrics.NewDownloadMetrics(),
		HTTP:     promMetrics.NewHTTPMetrics(),
	}
}
