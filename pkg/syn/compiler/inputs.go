package compiler

import (
	"runtime"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
	"synesis-hq/synesis/pkg/syn/template"
)

// DocumentKind tells what role an input document plays in a project.
type DocumentKind string

const (
	KindProject      DocumentKind = "project"
	KindTemplate     DocumentKind = "template"
	KindBibliography DocumentKind = "bibliography"
	KindAnnotations  DocumentKind = "annotations"
	KindOntology     DocumentKind = "ontology"
)

// Document is one input file held in memory. Path identifies it in every
// location.
type Document struct {
	Path string
	Data []byte
}

// Artifacts are template and bibliography builds made ahead of time,
// typically served from the editor adapter cache. Their diagnostics are
// reported as if they had been built during the compilation.
type Artifacts struct {
	Template                *template.Model
	TemplateDiagnostics     *errors.DiagnosticList
	Bibliography            *bib.Bibliography
	BibliographyDiagnostics *errors.DiagnosticList
}

// Inputs are the documents of one compilation. All file access happens
// before Compile; the pipeline itself performs no I/O.
type Inputs struct {
	// Project is the parsed project file; nil compiles loose documents.
	Project            *ast.ProjectNode
	ProjectPath        string
	ProjectDiagnostics *errors.DiagnosticList

	Template       Document
	Bibliographies []Document
	Annotations    []Document
	Ontologies     []Document

	// Prebuilt replaces the template and bibliography documents when set.
	Prebuilt *Artifacts
}

// Sources returns the data of every input document by path.
func (in *Inputs) Sources() map[string][]byte {
	out := make(map[string][]byte)
	add := func(d Document) {
		if d.Path != "" {
			out[d.Path] = d.Data
		}
	}
	add(in.Template)
	for _, group := range [][]Document{in.Bibliographies, in.Annotations, in.Ontologies} {
		for _, d := range group {
			add(d)
		}
	}
	return out
}

// Options control one compilation.
type Options struct {
	Strict             bool  // Count warnings as failures
	Workers            int   // Parallel parse and validation units; 0 selects GOMAXPROCS
	SuggestionDistance int   // Largest edit distance of a suggestion
	MaxFileSize        int64 // Largest accepted document in bytes
}

// DefaultOptions returns the options of a default configuration.
func DefaultOptions() Options {
	return Options{
		Workers:            runtime.GOMAXPROCS(0),
		SuggestionDistance: config.DefaultSuggestionDistance,
		MaxFileSize:        config.DefaultCompilerMaxFileSize,
	}
}

// OptionsFromConfig converts the compiler and validation sections of
// synesis.yaml.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Strict:             cfg.Compiler.Strict,
		Workers:            cfg.Compiler.Workers,
		SuggestionDistance: cfg.Validation.SuggestionDistance,
		MaxFileSize:        cfg.Compiler.MaxFileSize,
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return opts
}

// ParseProject parses a project file and returns its PROJECT block. A file
// without one is reported as a ParseError and yields a nil node.
func ParseProject(p *parser.Parser, data []byte, path string) (*ast.ProjectNode, *errors.DiagnosticList, error) {
	doc, diags, err := p.ParseDocument(data, path, nil)
	if err != nil {
		return nil, nil, err
	}
	if doc.Project == nil && !diags.HasErrors() {
		diags.Addf(errors.KindParseError, ast.Location{File: path, Line: 1, Column: 1},
			"no PROJECT block found").WithSuggestion("Start the file with 'PROJECT <name>'")
	}
	return doc.Project, diags, nil
}

// LoadTemplate parses a template document and builds its model.
func LoadTemplate(p *parser.Parser, doc Document) (*template.Model, *errors.DiagnosticList, error) {
	return template.Load(p, doc.Data, doc.Path)
}

// LoadBibliography parses every bibliography document into one
// bibliography. Keys duplicated across files are reported like duplicates
// within one file.
func LoadBibliography(docs []Document) (*bib.Bibliography, *errors.DiagnosticList, error) {
	merged := bib.New()
	diags := errors.NewDiagnosticList()
	for _, doc := range docs {
		b, bibDiags, err := bib.Parse(doc.Data, doc.Path)
		if err != nil {
			return nil, nil, err
		}
		diags.Merge(bibDiags)
		merged.Merge(b, diags)
	}
	return merged, diags, nil
}
