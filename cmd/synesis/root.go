package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	logLevel string

	// appLogger is set up from the configuration before every command.
	appLogger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "synesis",
	Short: "Synesis - compiler for qualitative research annotations",
	Long: `Synesis compiles qualitative research annotations into a validated,
linked corpus.

A project file (.synp) names a template (.synt), BibTeX bibliographies,
annotation files (.syn) and ontology files (.syno). The compiler checks every
annotation against the template, resolves bibliography references, codes and
relation chains, and exports the result as JSON, CSV or SQLite.

Exit codes:
  0  success
  1  compilation failed
  2  usage, configuration or project layout error`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Subcommands keep the first context they saw; refresh it so that a
	// later Execute in the same process is not already canceled.
	for _, c := range rootCmd.Commands() {
		c.SetContext(ctx)
	}

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		err = cli.UsageError(err)
	}
	if err != nil && !cli.Reported(err) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./synesis.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.UsageError(err)
	})
}

// loadConfig loads synesis.yaml with environment overrides, applies the
// global flags and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(config.ResolvePath(cfgFile, "."))
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	config.SetConfig(cfg)

	logger, err := logging.New(logging.FromConfig(&cfg.Logging, cmd.ErrOrStderr()))
	if err != nil {
		return cli.NewConfigError("logging.level", err.Error())
	}
	appLogger = logger.Slog()
	appLogger.Debug("configuration loaded", "path", cfgFile, "strict", cfg.Compiler.Strict)
	return nil
}

// usageArgs makes argument validation failures exit with the usage code.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return cli.UsageError(err)
		}
		return nil
	}
}
