package config

import "time"

// Config is the root configuration structure for the Synesis compiler.
// It is read from synesis.yaml and covers the compiler pipeline, the
// editor adapter, the exporters and telemetry.
type Config struct {
	// Compiler contains pipeline settings: worker count, input size limit
	// and strict mode.
	Compiler CompilerConfig `yaml:"compiler"`

	// Validation contains settings of the semantic validator.
	Validation ValidationConfig `yaml:"validation"`

	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Export contains settings of the JSON, CSV and SQLite exporters.
	Export ExportConfig `yaml:"export"`

	// Adapter contains settings of the editor adapter and watch mode.
	Adapter AdapterConfig `yaml:"adapter"`
}

// CompilerConfig contains compiler pipeline configuration.
type CompilerConfig struct {
	// Workers bounds the number of documents parsed and validated in
	// parallel. Zero selects GOMAXPROCS.
	// Default: 0
	Workers int `yaml:"workers"`

	// MaxFileSize is the largest input file accepted, in bytes.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Strict counts warnings as failures.
	// Default: false
	Strict bool `yaml:"strict"`
}

// ValidationConfig contains semantic validator configuration.
type ValidationConfig struct {
	// SuggestionDistance is the largest edit distance at which a "Did you
	// mean" suggestion is offered for references, codes and values.
	// Default: 3
	SuggestionDistance int `yaml:"suggestion_distance"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: json, text, console.
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource adds the source file and line to every record.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled turns metric collection and the metrics endpoint on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the listen address of the metrics endpoint in watch mode.
	// Default: "127.0.0.1:9464"
	Address string `yaml:"address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric namespace.
	// Default: "synesis"
	Namespace string `yaml:"namespace"`

	// Subsystem is an optional metric subsystem.
	Subsystem string `yaml:"subsystem"`

	// CompileDurationBuckets are the histogram buckets of compilation
	// durations, in seconds.
	CompileDurationBuckets []float64 `yaml:"compile_duration_buckets"`

	// DocumentSizeBuckets are the histogram buckets of input document
	// sizes, in bytes.
	DocumentSizeBuckets []float64 `yaml:"document_size_buckets"`
}

// ExportConfig contains exporter configuration.
type ExportConfig struct {
	// OutputDir is the directory JSON, CSV and XLSX files are written to.
	// Default: "out"
	OutputDir string `yaml:"output_dir"`

	// Formats lists the exporters run by "synesis compile": json, csv,
	// sqlite, xlsx.
	// Default: ["json"]
	Formats []string `yaml:"formats"`

	// JSONPretty indents the JSON export.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader writes a header row in every CSV table.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`

	// SQLite contains the run store configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls pruning of stored runs.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite run store configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "out/synesis.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns bounds the connection pool.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns"`
}

// RetentionConfig contains run retention configuration.
type RetentionConfig struct {
	// Days is how long stored runs are kept. Zero keeps runs forever.
	// Default: 0
	Days int `yaml:"days"`

	// PruneSchedule is the cron expression of the pruning job in watch mode.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// AdapterConfig contains editor adapter configuration.
type AdapterConfig struct {
	// Debounce is how long the watcher waits for a burst of file events to
	// settle before invalidating and recompiling.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`

	// Extensions lists the file extensions the watcher reacts to.
	// Default: [".synp", ".synt", ".syn", ".syno", ".bib"]
	Extensions []string `yaml:"extensions"`
}
