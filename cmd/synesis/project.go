package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/compiler"
	synerrors "synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/telemetry/logging"
	"synesis-hq/synesis/pkg/workspace"
)

// contextLines is the number of source lines printed around a diagnostic.
const contextLines = 2

// newCompiler creates a compiler from the configuration.
func newCompiler(cfg *config.Config, recorder compiler.Recorder) *compiler.Compiler {
	c := compiler.New(compiler.OptionsFromConfig(cfg)).WithLogger(appLogger)
	if recorder != nil {
		c.WithMetrics(recorder)
	}
	return c
}

// resolveProject finds the project file named by args, or the single
// project file of the current directory.
func resolveProject(args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	path, err := workspace.ResolveProject(target)
	if err != nil {
		return "", cli.UsageError(err)
	}
	return path, nil
}

// compileProject loads and compiles the project at path. Problems of the
// project file itself are printed to errOut.
func compileProject(ctx context.Context, c *compiler.Compiler, path string, errOut io.Writer) (*compiler.Result, error) {
	ctx = logging.WithProject(ctx, path)
	in, err := workspace.NewLoader(c.Parser(), c.Options().MaxFileSize).
		WithLogger(appLogger).
		Load(ctx, path)
	if err != nil {
		return nil, loadError(err, errOut)
	}
	return c.Compile(ctx, in)
}

// loadError maps workspace errors to exit codes. Layout problems are usage
// errors; an invalid project file or unreadable input fails compilation.
func loadError(err error, errOut io.Writer) error {
	var projectErr *workspace.ProjectError
	switch {
	case errors.As(err, &projectErr):
		if src, readErr := os.ReadFile(projectErr.Path); readErr == nil {
			synerrors.AttachContext(projectErr.Diagnostics, map[string][]byte{projectErr.Path: src}, contextLines)
		}
		_ = cli.WriteDiagnosticList(errOut, projectErr.Diagnostics)
		fmt.Fprintf(errOut, "✗ %v\n", projectErr)
		return cli.NewExitError(cli.ExitFailed, nil)

	case errors.Is(err, workspace.ErrNoProject),
		errors.Is(err, workspace.ErrAmbiguousProject),
		errors.Is(err, workspace.ErrMissingTemplate),
		errors.Is(err, workspace.ErrUnmatchedInclude):
		return cli.UsageError(err)
	}
	return err
}
