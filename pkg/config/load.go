package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no path is given.
const DefaultFileName = "synesis.yaml"

// LoadConfig loads configuration from a YAML file at the specified path.
// Keys absent from the file keep their default values. The result is
// validated; environment variables are not consulted, use
// LoadConfigWithEnvOverrides for that.
//
// An empty path yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SYNESIS_SECTION_FIELD (e.g., SYNESIS_LOGGING_LEVEL).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from the default values
// 2. Overlay the YAML file, if any
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// ResolvePath returns path, or DefaultFileName in dir when path is empty
// and that file exists, or "" for the built-in defaults.
func ResolvePath(path, dir string) string {
	if path != "" {
		return path
	}
	candidate := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are reported.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	envInt := func(name, field string, dst *int) {
		if val := os.Getenv(name); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not an integer", name, val)})
				return
			}
			*dst = n
		}
	}
	envBool := func(name, field string, dst *bool) {
		if val := os.Getenv(name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not a boolean", name, val)})
				return
			}
			*dst = b
		}
	}
	envString := func(name string, dst *string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
	envList := func(name string, dst *[]string) {
		if val := os.Getenv(name); val != "" {
			var out []string
			for _, part := range strings.Split(val, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			*dst = out
		}
	}
	envDuration := func(name, field string, dst *time.Duration) {
		if val := os.Getenv(name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not a duration", name, val)})
				return
			}
			*dst = d
		}
	}

	// Compiler overrides
	envInt("SYNESIS_COMPILER_WORKERS", "compiler.workers", &cfg.Compiler.Workers)
	if val := os.Getenv("SYNESIS_COMPILER_MAX_FILE_SIZE"); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			errs = append(errs, FieldError{Field: "compiler.max_file_size", Message: fmt.Sprintf("SYNESIS_COMPILER_MAX_FILE_SIZE: %q is not an integer", val)})
		} else {
			cfg.Compiler.MaxFileSize = n
		}
	}
	envBool("SYNESIS_COMPILER_STRICT", "compiler.strict", &cfg.Compiler.Strict)

	// Validation overrides
	envInt("SYNESIS_VALIDATION_SUGGESTION_DISTANCE", "validation.suggestion_distance", &cfg.Validation.SuggestionDistance)

	// Logging overrides
	envString("SYNESIS_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("SYNESIS_LOGGING_FORMAT", &cfg.Logging.Format)
	envBool("SYNESIS_LOGGING_ADD_SOURCE", "logging.add_source", &cfg.Logging.AddSource)

	// Metrics overrides
	envBool("SYNESIS_METRICS_ENABLED", "metrics.enabled", &cfg.Metrics.Enabled)
	envString("SYNESIS_METRICS_ADDRESS", &cfg.Metrics.Address)
	envString("SYNESIS_METRICS_PATH", &cfg.Metrics.Path)

	// Export overrides
	envString("SYNESIS_EXPORT_OUTPUT_DIR", &cfg.Export.OutputDir)
	envList("SYNESIS_EXPORT_FORMATS", &cfg.Export.Formats)
	envString("SYNESIS_EXPORT_SQLITE_PATH", &cfg.Export.SQLite.Path)
	envString("SYNESIS_EXPORT_SQLITE_DRIVER", &cfg.Export.SQLite.Driver)
	envInt("SYNESIS_EXPORT_RETENTION_DAYS", "export.retention.days", &cfg.Export.Retention.Days)
	envString("SYNESIS_EXPORT_RETENTION_PRUNE_SCHEDULE", &cfg.Export.Retention.PruneSchedule)

	// Adapter overrides
	envDuration("SYNESIS_ADAPTER_DEBOUNCE", "adapter.debounce", &cfg.Adapter.Debounce)
	envList("SYNESIS_ADAPTER_EXTENSIONS", &cfg.Adapter.Extensions)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment override: %w", ValidationError{Errors: errs})
	}
	return nil
}
