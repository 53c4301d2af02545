package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestInitializeRegistry(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Type = "memory"
	cfg.Download.HoldingDir = filepath.Join(t.TempDir(), "holding")

	reg, err := InitializeRegistry(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("InitializeRegistry failed: %v", err)
	}
	defer func() { _ = reg.Close() }()

	if _, err := reg.Service(); err != nil {
		t.Fatalf("Expected download service to be registered: %v", err)
	}
	if err := reg.Healthcheck(context.Background()); err != nil {
		t.Fatalf("Healthcheck failed: %v", err)
	}
}

func TestInitializeRegistry_ContentStoreFailure(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Filesystem = map[string]any{}

	if _, err := InitializeRegistry(context.Background(), cfg, nil); err == nil {
		t.Fatal("Expected error for missing filesystem path")
	}
}

func TestInitializeRegistry_NilConfig(t *testing.T) {
	if _, err := InitializeRegistry(context.Background(), nil, nil); err == nil {
		t.Fatal("Expected error for nil config")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(GetDefaultConfig())

	if result.Server != nil {
		t.Error("Expected no metrics server when disabled")
	}
	if result.Download == nil || result.HTTP == nil {
		t.Error("Expected no-op collectors when disabled")
	}
}

func TestCreateAdapters(t *testing.T) {
	cfg := GetDefaultConfig()

	adapters, err := CreateAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("CreateAdapters failed: %v", err)
	}
	if len(adapters) != 1 || adapters[0].Protocol() != "HTTP" {
		t.Fatalf("Expected one HTTP adapter, got %d", len(adapters))
	}
	if adapters[0].Port() != cfg.Adapters.HTTP.Port {
		t.Errorf("Expected port %d, got %d", cfg.Adapters.HTTP.Port, adapters[0].Port())
	}

	cfg.Adapters.HTTP.Enabled = false
	if _, err := CreateAdapters(cfg, nil); err == nil {
		t.Fatal("Expected error with no adapters enabled")
	}
}
