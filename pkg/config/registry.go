package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/download"
	"github.com/marmos91/dittozip/pkg/metrics"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/registry"
)

// InitializeRegistry creates a fully configured Registry from the provided configuration.
//
// This function orchestrates the complete initialization process:
//  1. Creates the catalog store from cfg.Catalog
//  2. Creates the content store from cfg.Content
//  3. Builds the access policy, the archive assembler and the download service
//  4. Registers the service on the registry
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Complete configuration loaded from config file
//   - downloadMetrics: Optional metrics collector (nil = no metrics)
//
// Returns:
//   - *registry.Registry: Fully initialized registry (caller must Close it)
//   - error: If store creation fails or configuration is invalid
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatalf("Failed to initialize registry: %v", err)
//	}
//	defer reg.Close()
func InitializeRegistry(ctx context.Context, cfg *Config, downloadMetrics metrics.DownloadMetrics) (*registry.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	logger.Debug("Initializing registry from configuration")

	catalogStore, err := CreateCatalogStore(ctx, &cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog store: %w", err)
	}
	logger.Debug("Catalog store created: type=%s", cfg.Catalog.Type)

	contentStore, err := CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		_ = catalogStore.Close()
		return nil, fmt.Errorf("failed to create content store: %w", err)
	}
	logger.Debug("Content store created: type=%s", cfg.Content.Type)

	reg := registry.NewRegistry(catalogStore, contentStore, nil)

	if err := reg.SetService(NewDownloadService(reg, cfg, downloadMetrics)); err != nil {
		_ = reg.Close()
		return nil, err
	}

	logger.Debug("Download service registered: max_files=%d max_size=%dMB holding_dir=%s",
		cfg.Download.MaxNumberOfFiles, cfg.Download.MaxDownloadSizeMB, cfg.Download.HoldingDir)

	return reg, nil
}

// NewDownloadService builds the download service on top of the registry's
// stores using the download and policy sections of cfg.
func NewDownloadService(reg *registry.Registry, cfg *Config, downloadMetrics metrics.DownloadMetrics) *download.Service {
	p := policy.NewAccessPolicy(policy.WithArchivistRoles(cfg.Policy.ArchivistRoles...))
	assembler := download.NewAssembler(reg.Catalog(), reg.Opener(), cfg.Download.AssemblerConfig())

	var opts []download.ServiceOption
	if downloadMetrics != nil {
		opts = append(opts, download.WithMetrics(downloadMetrics))
	}
	return download.NewService(reg.Catalog(), p, assembler, opts...)
}
