package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
)

var initFlags struct {
	name string
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new project",
	Long: `Create a project skeleton: a project file, a template, a bibliography,
a sample annotation file, a sample ontology and a synesis.yaml. Existing
files are left untouched.

Examples:
  # Scaffold in the current directory
  synesis init

  # Scaffold a named project in a new directory
  synesis init fieldwork --name fieldwork-2024`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: initProject,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFlags.name, "name", "", "project name (default: directory name)")
}

func initProject(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return cli.UsageError(err)
	}

	name := initFlags.name
	if name == "" {
		name = filepath.Base(abs)
	}
	name = projectName(name)

	out := cmd.OutOrStdout()
	for _, f := range scaffold(name) {
		path := filepath.Join(dir, filepath.FromSlash(f.path))
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "  exists  %s\n", path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "  created %s\n", path)
	}

	fmt.Fprintf(out, "✓ project %s initialized, run 'synesis compile %s'\n", name, dir)
	return nil
}

// projectName keeps the characters that are safe in names and file names.
func projectName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			return r
		case unicode.IsSpace(r), r == '.':
			return '_'
		}
		return -1
	}, strings.TrimSpace(s))
	if s == "" {
		return "study"
	}
	return s
}

type scaffoldFile struct {
	path    string
	content string
}

func scaffold(name string) []scaffoldFile {
	return []scaffoldFile{
		{name + ".synp", fmt.Sprintf(`PROJECT "%s"
    TEMPLATE "template.synt"
    INCLUDE BIBLIOGRAPHY "references.bib"
    INCLUDE ANNOTATIONS "annotations/*.syn"
    INCLUDE ONTOLOGY "ontologies/*.syno"
    DESCRIPTION
        Describe the research question and the corpus here.
    END DESCRIPTION
END PROJECT
`, name)},
		{"template.synt", fmt.Sprintf(`TEMPLATE "%s"
SOURCE FIELDS
    OPTIONAL date
END SOURCE FIELDS
ITEM FIELDS
    REQUIRED quote
    OPTIONAL code, note, chain
END ITEM FIELDS
ONTOLOGY FIELDS
    OPTIONAL description, topic
END ONTOLOGY FIELDS
FIELD date TYPE DATE
END FIELD
FIELD quote TYPE QUOTATION
END FIELD
FIELD code TYPE CODE
END FIELD
FIELD note TYPE MEMO
END FIELD
FIELD chain TYPE CHAIN
    RELATIONS
        INFLUENCES: shapes or changes
        ENABLES: makes possible
    END RELATIONS
END FIELD
FIELD description TYPE TEXT
END FIELD
FIELD topic TYPE TOPIC
END FIELD
END TEMPLATE
`, name)},
		{"references.bib", `@article{example2024,
    author = {Doe, Jane},
    title = {Trust and Adoption},
    journal = {Journal of Examples},
    year = {2024}
}
`},
		{"annotations/sample.syn", `SOURCE @example2024
    date: 2024-01-15
    ITEM
        quote: People adopt the tools they trust.
        code: Trust
        note: First observation. Revisit after the second round.
        chain: Trust -> INFLUENCES -> Adoption
    END ITEM
END SOURCE
`},
		{"ontologies/concepts.syno", `ONTOLOGY Trust
    description: Confidence in a tool or its maker.
    topic: Attitudes
END ONTOLOGY

ONTOLOGY Adoption
    description: Taking a tool into regular use.
    topic: Behaviour
END ONTOLOGY
`},
		{config.DefaultFileName, `compiler:
  strict: false
logging:
  level: warn
export:
  output_dir: out
  formats: [json, csv]
`},
	}
}
