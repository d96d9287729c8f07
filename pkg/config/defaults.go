package config

import "time"

// Default values for configuration fields.
const (
	// Compiler defaults
	DefaultCompilerWorkers     = 0
	DefaultCompilerMaxFileSize = int64(10 * 1024 * 1024) // 10MB
	DefaultCompilerStrict      = false

	// Validation defaults
	DefaultSuggestionDistance = 3
	MaxSuggestionDistance     = 10

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "console"

	// Metrics defaults
	DefaultMetricsEnabled   = false
	DefaultMetricsAddress   = "127.0.0.1:9464"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "synesis"

	// Export defaults
	DefaultExportOutputDir        = "out"
	DefaultExportFormat           = "json"
	DefaultExportJSONPretty       = true
	DefaultExportCSVIncludeHeader = true
	DefaultSQLitePath             = "out/synesis.db"
	DefaultSQLiteDriver           = "sqlite"
	DefaultSQLiteWALMode          = true
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultSQLiteMaxOpenConns     = 1
	DefaultRetentionDays          = 0
	DefaultRetentionSchedule      = "0 3 * * *"

	// Adapter defaults
	DefaultAdapterDebounce = 200 * time.Millisecond
)

var (
	// DefaultCompileDurationBuckets cover compilations from 1ms to 10s.
	DefaultCompileDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	// DefaultDocumentSizeBuckets cover documents from 1KB to 10MB.
	DefaultDocumentSizeBuckets = []float64{1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 10 << 20}

	// DefaultAdapterExtensions are the project file extensions.
	DefaultAdapterExtensions = []string{".synp", ".synt", ".syn", ".syno", ".bib"}
)

// Default returns a configuration holding every default value, including
// the boolean options that default to true.
func Default() *Config {
	cfg := &Config{}
	cfg.Export.JSONPretty = DefaultExportJSONPretty
	cfg.Export.CSVIncludeHeader = DefaultExportCSVIncludeHeader
	cfg.Export.SQLite.WALMode = DefaultSQLiteWALMode
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Compiler defaults
	if cfg.Compiler.MaxFileSize == 0 {
		cfg.Compiler.MaxFileSize = DefaultCompilerMaxFileSize
	}

	// Validation defaults
	if cfg.Validation.SuggestionDistance == 0 {
		cfg.Validation.SuggestionDistance = DefaultSuggestionDistance
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.CompileDurationBuckets) == 0 {
		cfg.Metrics.CompileDurationBuckets = append([]float64(nil), DefaultCompileDurationBuckets...)
	}
	if len(cfg.Metrics.DocumentSizeBuckets) == 0 {
		cfg.Metrics.DocumentSizeBuckets = append([]float64(nil), DefaultDocumentSizeBuckets...)
	}

	// Export defaults
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = DefaultExportOutputDir
	}
	if len(cfg.Export.Formats) == 0 {
		cfg.Export.Formats = []string{DefaultExportFormat}
	}
	if cfg.Export.SQLite.Path == "" {
		cfg.Export.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Export.SQLite.Driver == "" {
		cfg.Export.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Export.SQLite.BusyTimeout == 0 {
		cfg.Export.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Export.SQLite.MaxOpenConns == 0 {
		cfg.Export.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Export.Retention.PruneSchedule == "" {
		cfg.Export.Retention.PruneSchedule = DefaultRetentionSchedule
	}

	// Adapter defaults
	if cfg.Adapter.Debounce == 0 {
		cfg.Adapter.Debounce = DefaultAdapterDebounce
	}
	if len(cfg.Adapter.Extensions) == 0 {
		cfg.Adapter.Extensions = append([]string(nil), DefaultAdapterExtensions...)
	}
}
