package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/export"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/workspace"
)

var compileFlags struct {
	format string
	output string
	force  bool
	stats  bool
	strict bool
	all    bool
}

var compileCmd = &cobra.Command{
	Use:   "compile [project]",
	Short: "Compile a project and export the result",
	Long: `Compile a Synesis project and export the linked corpus.

The project is a .synp file, or a directory holding exactly one. Diagnostics
are printed to stderr. Exports are written only when the compilation
succeeds, unless --force is given; a forced export of a failed compilation
still exits with status 1.

Outputs:
  json    <output>/<project>.json
  csv     <output>/<project>/<table>.csv
  sqlite  the run store configured in synesis.yaml (export.sqlite.path)

Examples:
  # Compile the project in the current directory
  synesis compile

  # Export JSON and CSV to build/
  synesis compile study.synp --format json,csv --output build

  # Treat warnings as errors and show statistics
  synesis compile --strict --stats

  # Compile every project below a directory
  synesis compile corpora/ --all`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: compileProjects,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFlags.format, "format", "f", "", "comma-separated export formats: json, csv, sqlite, xlsx (default from config)")
	compileCmd.Flags().StringVarP(&compileFlags.output, "output", "o", "", "output directory for json, csv and xlsx (default from config)")
	compileCmd.Flags().BoolVar(&compileFlags.force, "force", false, "export even when the compilation failed")
	compileCmd.Flags().BoolVar(&compileFlags.stats, "stats", false, "print compilation statistics")
	compileCmd.Flags().BoolVar(&compileFlags.strict, "strict", false, "treat warnings as errors")
	compileCmd.Flags().BoolVar(&compileFlags.all, "all", false, "compile every project file below the directory")
}

func compileProjects(cmd *cobra.Command, args []string) error {
	cfg := *config.GetConfig()
	if compileFlags.strict {
		cfg.Compiler.Strict = true
	}
	if compileFlags.output != "" {
		cfg.Export.OutputDir = compileFlags.output
	}
	formats, err := parseFormats(compileFlags.format)
	if err != nil {
		return cli.UsageError(err)
	}

	projects, err := selectProjects(args, compileFlags.all)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	c := newCompiler(&cfg, nil)
	exporter := export.NewExporter(&cfg.Export).WithLogger(appLogger)

	var progress cli.ProgressReporter
	if len(projects) > 1 {
		progress = cli.NewProgressReporter(errOut, "Compiling")
		progress.Start(int64(len(projects)))
	}

	failed := 0
	for i, path := range projects {
		res, err := compileProject(ctx, c, path, errOut)
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return err
		}

		if err := cli.WriteDiagnostics(errOut, res, cli.FormatText, contextLines); err != nil {
			return err
		}
		if compileFlags.stats {
			fmt.Fprintf(out, "Statistics for %s:\n", res.Name)
			if err := cli.WriteStats(out, res.Stats); err != nil {
				return err
			}
		}

		outputs, err := exporter.Export(ctx, res, formats, compileFlags.force)
		switch {
		case errors.Is(err, compiler.ErrCompilationFailed):
			fmt.Fprintln(errOut, "  nothing exported, use --force to export anyway")
		case err != nil:
			return err
		}
		for _, o := range outputs {
			fmt.Fprintf(out, "  wrote %s (%s)\n", o.Path, o.Format)
		}

		if res.Failed() {
			failed++
		}
		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if failed > 0 {
		return cli.NewExitError(cli.ExitFailed, nil)
	}
	return nil
}

// parseFormats splits a comma-separated format list. An empty list selects
// the configured formats.
func parseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !slices.Contains(export.Formats, f) {
			return nil, fmt.Errorf("unknown export format %q, must be one of: %s", f, strings.Join(export.Formats, ", "))
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// selectProjects returns the project named by args, or with all every
// project below the directory named by args.
func selectProjects(args []string, all bool) ([]string, error) {
	if !all {
		path, err := resolveProject(args)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	projects, err := workspace.Discover(root)
	if err != nil {
		return nil, cli.UsageError(err)
	}
	if len(projects) == 0 {
		return nil, cli.UsageError(fmt.Errorf("%w in %s", workspace.ErrNoProject, root))
	}
	return projects, nil
}
