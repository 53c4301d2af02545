package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/config"
	"github.com/marmos91/dittozip/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve downloads over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if config.ConfigExists() || configPath != "" {
		logger.Info("Configuration loaded")
	} else {
		logger.Info("No configuration file found, using defaults (run 'dittozip init' to create one)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := config.InitializeMetrics(cfg)

	reg, err := config.InitializeRegistry(ctx, cfg, m.Download)
	if err != nil {
		return fmt.Errorf("failed to initialize registry: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn("Failed to close registry: %v", err)
		}
	}()

	opts := []server.Option{server.WithStopTimeout(cfg.Server.ShutdownTimeout)}
	if m.Server != nil {
		opts = append(opts, server.WithMetricsServer(m.Server))
	}
	srv := server.New(reg, opts...)

	adapters, err := config.CreateAdapters(cfg, m.HTTP)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return errors.New("no adapters enabled in configuration")
	}
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}

	logger.Info("dittozip is running, press Ctrl+C to stop")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
