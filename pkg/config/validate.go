package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "export.sqlite.driver").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"json", "text", "console"}
	validExportFormats = []string{"json", "csv", "sqlite", "xlsx"}
	validSQLiteDrivers = []string{"sqlite", "sqlite3"}
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCompiler(&cfg.Compiler)...)
	errs = append(errs, validateValidation(&cfg.Validation)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateAdapter(&cfg.Adapter)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCompiler(cfg *CompilerConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 0 {
		errs = append(errs, FieldError{
			Field:   "compiler.workers",
			Message: "must not be negative",
		})
	}
	if cfg.MaxFileSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "compiler.max_file_size",
			Message: "must be positive",
		})
	}

	return errs
}

func validateValidation(cfg *ValidationConfig) []FieldError {
	if cfg.SuggestionDistance < 0 || cfg.SuggestionDistance > MaxSuggestionDistance {
		return []FieldError{{
			Field:   "validation.suggestion_distance",
			Message: fmt.Sprintf("must be between 0 and %d", MaxSuggestionDistance),
		}}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	if !contains(validLogLevels, strings.ToLower(cfg.Level)) {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}
	if !contains(validLogFormats, strings.ToLower(cfg.Format)) {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "metrics.path",
			Message: "must start with '/'",
		})
	}
	if cfg.Enabled && cfg.Address == "" {
		errs = append(errs, FieldError{
			Field:   "metrics.address",
			Message: "is required when metrics are enabled",
		})
	}
	if !sort.Float64sAreSorted(cfg.CompileDurationBuckets) {
		errs = append(errs, FieldError{
			Field:   "metrics.compile_duration_buckets",
			Message: "must be sorted in increasing order",
		})
	}
	if !sort.Float64sAreSorted(cfg.DocumentSizeBuckets) {
		errs = append(errs, FieldError{
			Field:   "metrics.document_size_buckets",
			Message: "must be sorted in increasing order",
		})
	}

	return errs
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	for i, format := range cfg.Formats {
		if !contains(validExportFormats, strings.ToLower(format)) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("export.formats[%d]", i),
				Message: fmt.Sprintf("unknown format %q, must be one of: %s", format, strings.Join(validExportFormats, ", ")),
			})
		}
	}

	if !contains(validSQLiteDrivers, cfg.SQLite.Driver) {
		errs = append(errs, FieldError{
			Field:   "export.sqlite.driver",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validSQLiteDrivers, ", ")),
		})
	}
	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "export.sqlite.path",
			Message: "is required",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "export.sqlite.busy_timeout",
			Message: "must not be negative",
		})
	}
	if cfg.SQLite.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "export.sqlite.max_open_conns",
			Message: "must be at least 1",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "export.retention.days",
			Message: "must not be negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "export.retention.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateAdapter(cfg *AdapterConfig) []FieldError {
	var errs []FieldError

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "adapter.debounce",
			Message: "must not be negative",
		})
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("adapter.extensions[%d]", i),
				Message: fmt.Sprintf("%q must start with '.'", ext),
			})
		}
	}

	return errs
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
