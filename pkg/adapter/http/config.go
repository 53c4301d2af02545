package http

import (
	"fmt"
	"time"
)

// HTTPConfig holds configuration parameters for the HTTP download adapter.
//
// Default values (applied by New if zero):
//   - ReadTimeout: 30s
//   - WriteTimeout: 0 (archives can take long to stream)
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
//   - MaxRequestBytes: 1MiB
//
// A zero Port binds an ephemeral port; Addr() reports the bound address.
type HTTPConfig struct {
	// Enabled controls whether the HTTP adapter is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// ReadTimeout bounds reading a complete request, body included.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds writing a response. 0 means no timeout, which
	// large archives usually need.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`

	// IdleTimeout closes keep-alive connections idle for longer.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is the maximum time to wait for in-flight downloads
	// during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`

	// MaxRequestBytes caps the JSON body of archive requests.
	MaxRequestBytes int64 `mapstructure:"max_request_bytes" yaml:"max_request_bytes" validate:"min=0"`

	// ZipRateLimit throttles archive requests per client. 0 disables it.
	ZipRateLimit uint `mapstructure:"zip_rate_limit" yaml:"zip_rate_limit"`

	// ZipRateBurst is the number of archive requests a client may issue at
	// once (defaults to ZipRateLimit).
	ZipRateBurst uint `mapstructure:"zip_rate_burst" yaml:"zip_rate_burst"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *HTTPConfig) applyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MaxRequestBytes == 0 {
		c.MaxRequestBytes = 1 << 20
	}
	if c.ZipRateBurst == 0 {
		c.ZipRateBurst = c.ZipRateLimit
	}
}

// validate checks that the configuration is usable.
func (c *HTTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("invalid timeouts: must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.MaxRequestBytes < 0 {
		return fmt.Errorf("invalid MaxRequestBytes %d: must be >= 0", c.MaxRequestBytes)
	}
	return nil
}
