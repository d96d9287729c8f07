package compiler

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/linker"
	"synesis-hq/synesis/pkg/syn/parser"
	"synesis-hq/synesis/pkg/syn/template"
	"synesis-hq/synesis/pkg/syn/validator"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

var (
	// ErrCompilationFailed is returned by Result.Output when the
	// compilation has failures and output is not forced.
	ErrCompilationFailed = stderrors.New("compilation failed")

	// ErrMissingTemplate is returned when neither a template document nor a
	// prebuilt template is given.
	ErrMissingTemplate = stderrors.New("no template given")
)

// Recorder receives compilation metrics. The telemetry metrics collector
// implements it.
type Recorder interface {
	RecordCompilation(project, status string, duration time.Duration)
	RecordStage(stage string, duration time.Duration)
	RecordDocument(kind string, size int)
	RecordDiagnostic(severity, kind string)
}

// Result is the outcome of one compilation. The diagnostic list is always
// complete, whether or not the compilation failed.
type Result struct {
	ID          uuid.UUID
	Name        string // Project name used in logs and metrics
	Project     *linker.LinkedProject
	Diagnostics *errors.DiagnosticList
	Stats       linker.Stats
	Started     time.Time
	Duration    time.Duration
	Strict      bool

	// Sources holds the input data by path, for rendering excerpts.
	Sources map[string][]byte
}

// Failed reports whether any diagnostic is an error, or, in strict mode, a
// warning.
func (r *Result) Failed() bool {
	return r.Diagnostics.Failed(r.Strict)
}

// Output returns the linked project. A failed compilation yields
// ErrCompilationFailed unless force is set, in which case the partially
// linked project is returned.
func (r *Result) Output(force bool) (*linker.LinkedProject, error) {
	if r.Failed() && !force {
		return nil, fmt.Errorf("%w: %d error(s), %d warning(s)", ErrCompilationFailed, r.Stats.Errors, r.Stats.Warnings)
	}
	return r.Project, nil
}

// Compiler runs the compilation pipeline. It holds no state between
// compilations and is safe for concurrent use.
type Compiler struct {
	opts     Options
	parser   *parser.Parser
	logger   *slog.Logger
	recorder Recorder
}

// New creates a compiler with opts.
func New(opts Options) *Compiler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	p := parser.NewParser()
	if opts.MaxFileSize > 0 {
		p.WithMaxFileSize(opts.MaxFileSize)
	}
	return &Compiler{
		opts:   opts,
		parser: p,
		logger: logging.Discard(),
	}
}

// WithLogger sets the logger of pipeline progress.
func (c *Compiler) WithLogger(logger *slog.Logger) *Compiler {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithMetrics sets the metrics recorder.
func (c *Compiler) WithMetrics(r Recorder) *Compiler {
	c.recorder = r
	return c
}

// Parser returns the parser shared by every stage, configured with the
// size limit of the options.
func (c *Compiler) Parser() *parser.Parser {
	return c.parser
}

// Options returns the compiler options.
func (c *Compiler) Options() Options {
	return c.opts
}

// unit is one annotation or ontology document moving through the pipeline.
type unit struct {
	doc   Document
	kind  DocumentKind
	file  *parser.File
	ast   *ast.Document
	diags *errors.DiagnosticList
}

// Compile runs the pipeline: parallel parsing, template and bibliography
// loading, parallel AST building, the ontology index, parallel validation,
// then sequential linking once every document is done. Diagnostics of all
// stages are merged in file, line and column order.
//
// The returned error is non-nil only for fatal input problems and
// cancellation; rule violations are diagnostics of the result.
func (c *Compiler) Compile(ctx context.Context, in *Inputs) (*Result, error) {
	start := time.Now()
	id := uuid.New()
	name := projectName(in)

	ctx = logging.WithCompilationID(ctx, id.String())
	ctx = logging.WithProject(ctx, name)
	c.logger.DebugContext(ctx, "compilation started",
		"annotations", len(in.Annotations),
		"ontologies", len(in.Ontologies),
		"bibliographies", len(in.Bibliographies))

	res, err := c.compile(ctx, in)
	if err != nil {
		c.record(name, "error", time.Since(start))
		c.logger.ErrorContext(ctx, "compilation aborted", "error", err)
		return nil, err
	}

	res.ID = id
	res.Name = name
	res.Started = start
	res.Duration = time.Since(start)
	res.Sources = in.Sources()

	status := "success"
	if res.Failed() {
		status = "failed"
	}
	c.record(name, status, res.Duration)
	if c.recorder != nil {
		for _, d := range res.Diagnostics.Diagnostics {
			c.recorder.RecordDiagnostic(string(d.Severity), string(d.Kind))
		}
	}

	c.logger.InfoContext(ctx, "compilation finished",
		"status", status,
		"sources", res.Stats.Sources,
		"items", res.Stats.Items,
		"errors", res.Stats.Errors,
		"warnings", res.Stats.Warnings,
		"duration", res.Duration)
	return res, nil
}

func (c *Compiler) compile(ctx context.Context, in *Inputs) (*Result, error) {
	if in.Template.Path == "" && (in.Prebuilt == nil || in.Prebuilt.Template == nil) {
		return nil, ErrMissingTemplate
	}

	diags := errors.NewDiagnosticList()
	diags.Merge(in.ProjectDiagnostics)

	units := make([]*unit, 0, len(in.Annotations)+len(in.Ontologies))
	for _, d := range in.Annotations {
		units = append(units, &unit{doc: d, kind: KindAnnotations})
	}
	for _, d := range in.Ontologies {
		units = append(units, &unit{doc: d, kind: KindOntology})
	}
	for _, u := range units {
		c.recordDocument(u.kind, len(u.doc.Data))
	}

	// Stage 1: lex and parse every document.
	err := c.stage(ctx, "parse", func() error {
		return c.parallel(ctx, len(units), func(i int) error {
			u := units[i]
			file, parseDiags, err := c.parser.ParseBytes(u.doc.Data, u.doc.Path)
			if err != nil {
				return err
			}
			u.file, u.diags = file, parseDiags
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Stage 2: template model.
	var model *template.Model
	err = c.stage(ctx, "template", func() error {
		if in.Prebuilt != nil && in.Prebuilt.Template != nil {
			model = in.Prebuilt.Template
			diags.Merge(in.Prebuilt.TemplateDiagnostics)
			return nil
		}
		c.recordDocument(KindTemplate, len(in.Template.Data))
		m, tmplDiags, err := LoadTemplate(c.parser, in.Template)
		if err != nil {
			return err
		}
		model = m
		diags.Merge(tmplDiags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 3: bibliography.
	var refs *bib.Bibliography
	err = c.stage(ctx, "bibliography", func() error {
		if in.Prebuilt != nil && in.Prebuilt.Bibliography != nil {
			refs = in.Prebuilt.Bibliography
			diags.Merge(in.Prebuilt.BibliographyDiagnostics)
			return nil
		}
		for _, d := range in.Bibliographies {
			c.recordDocument(KindBibliography, len(d.Data))
		}
		b, bibDiags, err := LoadBibliography(in.Bibliographies)
		if err != nil {
			return err
		}
		refs = b
		diags.Merge(bibDiags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 4: typed documents against the template.
	err = c.stage(ctx, "build", func() error {
		return c.parallel(ctx, len(units), func(i int) error {
			u := units[i]
			doc, buildDiags := parser.Build(u.file, model)
			u.ast = doc
			u.diags.Merge(buildDiags)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*ast.Document, len(units))
	for i, u := range units {
		docs[i] = u.ast
		diags.Merge(u.diags)
	}

	// Stage 5: ontology index, needed by validation for code lookups.
	ontology, ontDiags := linker.BuildOntologyIndex(docs)
	diags.Merge(ontDiags)

	// Stage 6: validation of every node.
	err = c.stage(ctx, "validate", func() error {
		v := validator.NewValidator(model).
			WithBibliography(refs).
			WithVocabulary(ontology).
			WithSuggestionDistance(c.opts.SuggestionDistance).
			WithWorkers(c.opts.Workers)
		valDiags, err := v.Validate(ctx, docs)
		if err != nil {
			return err
		}
		diags.Merge(valDiags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 7: linking, after every document is validated.
	var lp *linker.LinkedProject
	err = c.stage(ctx, "link", func() error {
		var linkDiags *errors.DiagnosticList
		lp, linkDiags = linker.NewLinker(model).
			WithBibliography(refs).
			WithOntology(ontology).
			Link(in.Project, docs)
		if lp == nil {
			return fmt.Errorf("linking failed")
		}
		diags.Merge(linkDiags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	diags.Sort()
	lp.Diagnostics = diags
	lp.Stats.CountDiagnostics(diags)

	return &Result{
		Project:     lp,
		Diagnostics: diags,
		Stats:       lp.Stats,
		Strict:      c.opts.Strict,
	}, nil
}

// stage runs fn as a named pipeline stage, checking for cancellation first.
func (c *Compiler) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.RecordStage(name, elapsed)
	}
	c.logger.DebugContext(ctx, "stage finished", "stage", name, "duration", elapsed)
	return err
}

// parallel calls fn for 0..n-1 on at most opts.Workers goroutines. The
// error of the lowest failing index is returned, so the outcome does not
// depend on scheduling.
func (c *Compiler) parallel(ctx context.Context, n int, fn func(i int) error) error {
	errs := make([]error, n)
	sem := make(chan struct{}, c.opts.Workers)
	var wg sync.WaitGroup

loop:
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) record(project, status string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordCompilation(project, status, d)
	}
}

func (c *Compiler) recordDocument(kind DocumentKind, size int) {
	if c.recorder != nil {
		c.recorder.RecordDocument(string(kind), size)
	}
}

// projectName names the project in logs and metrics: the PROJECT name, or
// the project file name without extension.
func projectName(in *Inputs) string {
	if in.Project != nil && in.Project.Name != "" {
		return in.Project.Name
	}
	if in.ProjectPath != "" {
		base := filepath.Base(in.ProjectPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "default"
}
