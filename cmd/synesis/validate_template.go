package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/compiler"
	synerrors "synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/template"
)

var validateTemplateCmd = &cobra.Command{
	Use:   "validate-template <file>",
	Short: "Validate a template file",
	Long: `Load a template (.synt) on its own and report its problems: syntax
errors, unknown field types, undeclared fields in FIELDS sections and
malformed BUNDLE, RELATIONS, VALUES and ARITY clauses.

Examples:
  synesis validate-template study.synt`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: validateTemplate,
}

func init() {
	rootCmd.AddCommand(validateTemplateCmd)
}

func validateTemplate(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg := config.GetConfig()

	info, err := os.Stat(path)
	if err != nil {
		return cli.UsageError(err)
	}
	if info.Size() > cfg.Compiler.MaxFileSize {
		return synerrors.NewFatalError(path, synerrors.ErrFileTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := compiler.New(compiler.OptionsFromConfig(cfg))
	model, diags, err := template.Load(c.Parser(), data, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	synerrors.AttachContext(diags, map[string][]byte{path: data}, contextLines)
	if err := cli.WriteDiagnosticList(out, diags); err != nil {
		return err
	}
	if diags.Failed(cfg.Compiler.Strict) {
		fmt.Fprintf(out, "✗ %s: %d error(s), %d warning(s)\n", path,
			diags.CountSeverity(synerrors.SeverityError), diags.CountSeverity(synerrors.SeverityWarning))
		return cli.NewExitError(cli.ExitFailed, nil)
	}

	fmt.Fprintf(out, "✓ %s: template %s with %d field(s)\n", path, model.Name, model.FieldCount())
	for _, scope := range ast.Scopes {
		if names := model.FieldNames(scope); len(names) > 0 {
			fmt.Fprintf(out, "  %s: %v\n", scope, names)
		}
	}
	return nil
}
