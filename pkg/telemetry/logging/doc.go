// Package logging provides structured logging for the Synesis tools.
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text and console output formats
//   - Level parsing from configuration strings
//   - Context fields: compilation ID, project and document path
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithCompilationID(ctx, id)
//	logger.InfoContext(ctx, "compilation finished", "errors", 0)
//	// ... compilation_id=<id> is added to the record
//
// Components receive logger.Slog(). The compiler core never logs; only the
// pipeline, the adapter and the CLI do.
package logging
