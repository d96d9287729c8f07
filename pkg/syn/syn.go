// Package syn compiles Synesis projects held in memory.
//
// Load is the entry point for notebooks, editor integrations and tests: it
// takes document contents keyed by file name and never touches the file
// system. For projects on disk use package workspace.
package syn

import (
	"context"
	"sort"

	"synesis-hq/synesis/pkg/syn/compiler"
)

// Default file names used in locations when none is given.
const (
	DefaultProjectFilename      = "<project>"
	DefaultTemplateFilename     = "<template>"
	DefaultBibliographyFilename = "<bibliography>"
)

// Sources are the contents of one project. Only Template is required.
type Sources struct {
	Project      string
	Template     string
	Bibliography string
	Annotations  map[string]string // File name to content
	Ontologies   map[string]string // File name to content

	ProjectFilename      string
	TemplateFilename     string
	BibliographyFilename string
}

// Load compiles src with opts, or with compiler.DefaultOptions when opts is
// nil. Annotation and ontology documents are compiled in file name order.
func Load(ctx context.Context, src Sources, opts *compiler.Options) (*compiler.Result, error) {
	o := compiler.DefaultOptions()
	if opts != nil {
		o = *opts
	}
	c := compiler.New(o)

	in := &compiler.Inputs{
		Template: compiler.Document{
			Path: orDefault(src.TemplateFilename, DefaultTemplateFilename),
			Data: []byte(src.Template),
		},
		Annotations: documents(src.Annotations),
		Ontologies:  documents(src.Ontologies),
	}
	if src.Bibliography != "" {
		in.Bibliographies = []compiler.Document{{
			Path: orDefault(src.BibliographyFilename, DefaultBibliographyFilename),
			Data: []byte(src.Bibliography),
		}}
	}
	if src.Project != "" {
		in.ProjectPath = orDefault(src.ProjectFilename, DefaultProjectFilename)
		project, diags, err := compiler.ParseProject(c.Parser(), []byte(src.Project), in.ProjectPath)
		if err != nil {
			return nil, err
		}
		in.Project = project
		in.ProjectDiagnostics = diags
	}

	return c.Compile(ctx, in)
}

func documents(contents map[string]string) []compiler.Document {
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]compiler.Document, len(names))
	for i, name := range names {
		docs[i] = compiler.Document{Path: name, Data: []byte(contents[name])}
	}
	return docs
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
