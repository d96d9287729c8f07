// Package config provides configuration management for the Synesis compiler.
//
// Configuration is read from synesis.yaml. Every key is optional; missing
// keys keep their defaults.
//
//	compiler:
//	  workers: 4
//	  max_file_size: 10485760
//	  strict: false
//	validation:
//	  suggestion_distance: 3
//	logging:
//	  level: info
//	  format: console
//	metrics:
//	  enabled: true
//	  address: 127.0.0.1:9464
//	export:
//	  output_dir: out
//	  formats: [json, csv, sqlite]
//	  sqlite:
//	    path: out/synesis.db
//	    driver: sqlite
//	  retention:
//	    days: 30
//	    prune_schedule: "0 3 * * *"
//	adapter:
//	  debounce: 200ms
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SYNESIS_SECTION_FIELD:
//
//   - SYNESIS_LOGGING_LEVEL overrides logging.level
//   - SYNESIS_EXPORT_FORMATS overrides export.formats (comma separated)
//   - SYNESIS_EXPORT_SQLITE_DRIVER overrides export.sqlite.driver
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton
//
// The CLI calls Initialize once at startup; other code reads the result
// with GetConfig. Library code takes explicit values instead.
package config
