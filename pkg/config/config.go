package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	httpadapter "github.com/marmos91/dittozip/pkg/adapter/http"
	"github.com/marmos91/dittozip/pkg/download"
	"github.com/spf13/viper"
)

// Config represents the complete dittozip configuration.
//
// This structure captures all configurable aspects of the download service:
//   - Logging configuration
//   - Server-wide settings (shutdown, metrics)
//   - Catalog store selection and configuration (store-specific)
//   - Content store selection and configuration (store-specific)
//   - Download limits and archive locations
//   - Access policy settings
//   - Protocol adapter configurations
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOZIP_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory function.
// The Config struct contains type-specific sections (e.g., content.filesystem, content.s3)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Catalog specifies the catalog store type and type-specific configuration
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Download holds archive limits and working directories
	Download DownloadConfig `mapstructure:"download" yaml:"download"`

	// Policy configures the access policy
	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MetricsConfig controls the metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// CatalogConfig specifies catalog store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type CatalogConfig struct {
	// Type specifies which catalog store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// ContentConfig specifies content store configuration.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// DownloadConfig holds the archive limits and the directories archives and
// generated documents are written to.
type DownloadConfig struct {
	// MaxDownloadSizeMB caps the summed size of the files in one archive.
	// 0 disables the check.
	MaxDownloadSizeMB int64 `mapstructure:"max_download_size_mb" yaml:"max_download_size_mb" validate:"min=0"`

	// MaxNumberOfFiles caps the number of items in one archive, folders
	// included. 0 disables the check.
	MaxNumberOfFiles int `mapstructure:"max_number_of_files" yaml:"max_number_of_files" validate:"min=0"`

	// HoldingDir receives the produced archives
	HoldingDir string `mapstructure:"holding_dir" yaml:"holding_dir" validate:"required"`

	// TempDir receives generated manifests (empty = OS temp dir)
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`

	// GeneralConditionsPath overrides the embedded general conditions document
	GeneralConditionsPath string `mapstructure:"general_conditions_path" yaml:"general_conditions_path"`

	// Compression of file entries
	// Valid values: deflate, store, zstd
	Compression string `mapstructure:"compression" yaml:"compression" validate:"required,oneof=deflate store zstd"`
}

// Limits converts the configured limits into download.Limits.
func (c DownloadConfig) Limits() download.Limits {
	return download.LimitsFromMB(c.MaxDownloadSizeMB, c.MaxNumberOfFiles)
}

// AssemblerConfig converts the section into download.AssemblerConfig.
func (c DownloadConfig) AssemblerConfig() download.AssemblerConfig {
	return download.AssemblerConfig{
		Limits:                c.Limits(),
		HoldingDir:            c.HoldingDir,
		TempDir:               c.TempDir,
		GeneralConditionsPath: c.GeneralConditionsPath,
		Compression:           download.Compression(c.Compression),
	}
}

// PolicyConfig configures the access policy.
type PolicyConfig struct {
	// ArchivistRoles bypass item-level access rules
	ArchivistRoles []string `mapstructure:"archivist_roles" yaml:"archivist_roles" validate:"dive,required"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// HTTP contains HTTP download adapter configuration.
	// Uses the httpadapter.HTTPConfig type directly to avoid duplication.
	HTTP httpadapter.HTTPConfig `mapstructure:"http" yaml:"http"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOZIP_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOZIP_ prefix and underscores
	// Example: DITTOZIP_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOZIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittozip/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// envKeys are the scalar settings that can be set from the environment
// without a config file.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"server.shutdown_timeout",
	"server.metrics.enabled",
	"server.metrics.port",
	"catalog.type",
	"content.type",
	"download.max_download_size_mb",
	"download.max_number_of_files",
	"download.holding_dir",
	"download.temp_dir",
	"download.general_conditions_path",
	"download.compression",
	"adapters.http.enabled",
	"adapters.http.port",
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittozip")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittozip")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
