package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their configuration key rather than the Go name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks struct tags, then the rules that span sections. Every tag
// violation is reported, one per line.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Server.Metrics.Enabled && cfg.Adapters.HTTP.Enabled &&
		cfg.Server.Metrics.Port == cfg.Adapters.HTTP.Port {
		return fmt.Errorf("server.metrics.port: %d is already used by adapters.http", cfg.Server.Metrics.Port)
	}

	if cfg.Adapters.HTTP.ShutdownTimeout > cfg.Server.ShutdownTimeout {
		return fmt.Errorf("adapters.http.shutdown_timeout (%v) exceeds server.shutdown_timeout (%v)",
			cfg.Adapters.HTTP.ShutdownTimeout, cfg.Server.ShutdownTimeout)
	}

	if cfg.Download.TempDir != "" && cfg.Download.TempDir == cfg.Download.HoldingDir {
		return fmt.Errorf("download.temp_dir must differ from download.holding_dir")
	}

	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]error, 0, len(verrs))
	for _, e := range verrs {
		errs = append(errs, fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", configKey(e), e.Tag(), e.Value()))
	}
	return errors.Join(errs...)
}

// configKey drops the root struct name from the namespace:
// "Config.download.holding_dir" becomes "download.holding_dir".
func configKey(e validator.FieldError) string {
	_, key, found := strings.Cut(e.Namespace(), ".")
	if !found {
		return e.Namespace()
	}
	return key
}
