package validator

import (
	"context"
	"runtime"
	"sync"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/template"
)

// Vocabulary answers concept lookups against the project ontology.
// Names are matched on their concept key (whitespace collapsed, lower-cased).
type Vocabulary interface {
	Len() int
	HasConcept(name string) bool
	ConceptNames() []string
}

// Validator checks SOURCE, ITEM and ONTOLOGY nodes against a template model.
// It only reads its inputs, so one Validator may check many nodes
// concurrently.
type Validator struct {
	model        *template.Model
	bibliography *bib.Bibliography
	vocabulary   Vocabulary
	distance     int
	workers      int
}

// NewValidator creates a validator for model. Bibliography and vocabulary
// checks are skipped until the corresponding inputs are set.
func NewValidator(model *template.Model) *Validator {
	return &Validator{
		model:    model,
		distance: bib.DefaultSuggestionDistance,
		workers:  runtime.GOMAXPROCS(0),
	}
}

// WithBibliography sets the bibliography used to resolve references.
func (v *Validator) WithBibliography(b *bib.Bibliography) *Validator {
	v.bibliography = b
	return v
}

// WithVocabulary sets the ontology used for codes and enumerated values.
func (v *Validator) WithVocabulary(voc Vocabulary) *Validator {
	v.vocabulary = voc
	return v
}

// WithSuggestionDistance sets the largest edit distance for reference and
// vocabulary suggestions.
func (v *Validator) WithSuggestionDistance(n int) *Validator {
	if n >= 0 {
		v.distance = n
	}
	return v
}

// WithWorkers bounds the number of nodes validated at once.
func (v *Validator) WithWorkers(n int) *Validator {
	if n > 0 {
		v.workers = n
	}
	return v
}

// Validate checks every source, top-level item and ontology concept of docs.
// Independent nodes are validated concurrently. The merged list is sorted
// by file, line and column and does not depend on scheduling.
func (v *Validator) Validate(ctx context.Context, docs []*ast.Document) (*errors.DiagnosticList, error) {
	var units []func() *errors.DiagnosticList
	for _, doc := range docs {
		for _, src := range doc.Sources {
			units = append(units, func() *errors.DiagnosticList { return v.ValidateSource(src) })
		}
		for _, item := range doc.Items {
			units = append(units, func() *errors.DiagnosticList { return v.ValidateItem(item) })
		}
		for _, ont := range doc.Ontologies {
			units = append(units, func() *errors.DiagnosticList { return v.ValidateOntology(ont) })
		}
	}

	results := make([]*errors.DiagnosticList, len(units))
	sem := make(chan struct{}, v.workers)
	var wg sync.WaitGroup

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = unit()
		}()
	}
	wg.Wait()

	merged := errors.NewDiagnosticList()
	for _, r := range results {
		merged.Merge(r)
	}
	merged.Sort()
	return merged, nil
}

// ValidateSource checks a source and the items nested in it.
func (v *Validator) ValidateSource(src *ast.SourceNode) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()
	v.checkNode(ast.ScopeSource, src.Fields, src.Location, diags)
	v.checkBibref(src.Bibref, src.Location, diags)
	for _, item := range src.Items {
		v.checkItem(item, src, diags)
	}
	return diags
}

// ValidateItem checks a top-level item.
func (v *Validator) ValidateItem(item *ast.ItemNode) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()
	v.checkItem(item, nil, diags)
	return diags
}

// ValidateOntology checks one ontology concept.
func (v *Validator) ValidateOntology(ont *ast.OntologyNode) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()
	v.checkNode(ast.ScopeOntology, ont.Fields, ont.Location, diags)
	return diags
}

// checkItem checks an item. parent is the enclosing source of a nested item.
func (v *Validator) checkItem(item *ast.ItemNode, parent *ast.SourceNode, diags *errors.DiagnosticList) {
	v.checkNode(ast.ScopeItem, item.Fields, item.Location, diags)
	if parent != nil {
		v.checkNestedBibref(item, parent, diags)
		return
	}
	v.checkBibref(item.Bibref, item.BibrefOrigin, diags)
}

// checkNode runs the field passes shared by every node kind.
func (v *Validator) checkNode(scope ast.Scope, fields ast.Fields, loc ast.Location, diags *errors.DiagnosticList) {
	v.checkUnknownFields(scope, fields, diags)
	v.checkCardinality(scope, fields, loc, diags)
	v.checkBundles(scope, fields, loc, diags)
	for _, f := range fields {
		v.checkValue(scope, f, diags)
	}
}
