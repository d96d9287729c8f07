package main

import (
	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
)

var checkFlags struct {
	format string
	strict bool
}

var checkCmd = &cobra.Command{
	Use:   "check [project]",
	Short: "Compile a project and print its diagnostics",
	Long: `Compile a Synesis project without exporting anything and print every
diagnostic to stdout.

Examples:
  # Check the project in the current directory
  synesis check

  # JSON report for editors and CI
  synesis check study.synp --format json

  # Strict mode (warnings as errors)
  synesis check --strict`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: checkProject,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
	checkCmd.Flags().BoolVar(&checkFlags.strict, "strict", false, "treat warnings as errors")
}

func checkProject(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(checkFlags.format)
	if err != nil {
		return cli.UsageError(err)
	}

	cfg := *config.GetConfig()
	if checkFlags.strict {
		cfg.Compiler.Strict = true
	}

	path, err := resolveProject(args)
	if err != nil {
		return err
	}

	res, err := compileProject(cmd.Context(), newCompiler(&cfg, nil), path, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := cli.WriteDiagnostics(cmd.OutOrStdout(), res, format, contextLines); err != nil {
		return err
	}
	if res.Failed() {
		return cli.NewExitError(cli.ExitFailed, nil)
	}
	return nil
}
