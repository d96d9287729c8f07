package linker

import (
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/template"
)

// LinkedSource is a SOURCE together with its bibliography entry and every
// item attached to it: nested items first, then top-level items in
// document order.
type LinkedSource struct {
	Key    string // Normalized bibliographic key
	Source *ast.SourceNode
	Entry  *ast.BibliographyEntry // nil when the key is not in the bibliography
	Items  []*ast.ItemNode
}

// LinkedProject is the result of one compilation: the validated forest and
// the indices built over it. Nodes are shared with the documents, not
// copied.
type LinkedProject struct {
	Project      *ast.ProjectNode
	Template     *template.Model
	Bibliography *bib.Bibliography
	Documents    []*ast.Document
	Sources      []*LinkedSource
	Ontology     *OntologyIndex
	Codes        *CodeTable
	Relations    *RelationIndex
	Topics       *TopicHierarchy
	Diagnostics  *errors.DiagnosticList
	Stats        Stats

	sources map[string]*LinkedSource
}

// Source returns the linked source for a reference ("@Key" or "key").
func (lp *LinkedProject) Source(ref string) (*LinkedSource, bool) {
	ls, ok := lp.sources[bib.NormalizeRef(ref)]
	return ls, ok
}

// Items returns every item of the project: items of linked sources first,
// then orphan items, each group in document order.
func (lp *LinkedProject) Items() []*ast.ItemNode {
	var out []*ast.ItemNode
	linked := make(map[*ast.ItemNode]bool)
	for _, ls := range lp.Sources {
		for _, item := range ls.Items {
			out = append(out, item)
			linked[item] = true
		}
	}
	for _, doc := range lp.Documents {
		for _, item := range doc.Items {
			if !linked[item] {
				out = append(out, item)
			}
		}
	}
	return out
}

// Linker builds the global indices of a project. It runs once all
// documents are parsed and validated, and is single-pass and sequential.
type Linker struct {
	model        *template.Model
	bibliography *bib.Bibliography
	ontology     *OntologyIndex
}

// NewLinker creates a linker. model may be nil.
func NewLinker(model *template.Model) *Linker {
	return &Linker{model: model}
}

// WithBibliography sets the bibliography entries are attached from.
func (l *Linker) WithBibliography(b *bib.Bibliography) *Linker {
	l.bibliography = b
	return l
}

// WithOntology reuses an index built before validation. Without it Link
// builds its own and reports duplicate concepts.
func (l *Linker) WithOntology(idx *OntologyIndex) *Linker {
	l.ontology = idx
	return l
}

// Link attaches items to sources and builds the ontology, code, relation
// and topic indices. It returns the linked project and the diagnostics of
// linking only.
func (l *Linker) Link(project *ast.ProjectNode, docs []*ast.Document) (*LinkedProject, *errors.DiagnosticList) {
	diags := errors.NewDiagnosticList()

	ontology := l.ontology
	if ontology == nil {
		var ontDiags *errors.DiagnosticList
		ontology, ontDiags = BuildOntologyIndex(docs)
		diags.Merge(ontDiags)
	}

	lp := &LinkedProject{
		Project:      project,
		Template:     l.model,
		Bibliography: l.bibliography,
		Documents:    docs,
		Ontology:     ontology,
		sources:      make(map[string]*LinkedSource),
	}

	l.linkSources(lp, diags)

	c := &collector{
		ontology:  ontology,
		codes:     newCodeTable(),
		relations: newRelationIndex(),
	}
	for _, doc := range docs {
		if err := ast.Walk(doc, c); err != nil {
			return nil, diags
		}
	}
	lp.Codes = c.codes
	lp.Relations = c.relations

	lp.Topics = buildTopics(ontology, l.model, diags)
	lp.Stats = computeStats(lp, c)
	return lp, diags
}

// linkSources indexes sources by key and attaches top-level items.
func (l *Linker) linkSources(lp *LinkedProject, diags *errors.DiagnosticList) {
	for _, doc := range lp.Documents {
		for _, src := range doc.Sources {
			key := bib.NormalizeRef(src.Bibref)
			if prev, ok := lp.sources[key]; ok {
				diags.Addf(errors.KindDuplicateSource, src.Location,
					"SOURCE '@%s' is already defined at %s", src.Bibref, prev.Source.Location).
					WithSuggestion("Move the fields and items of both blocks into one SOURCE")
				continue
			}
			ls := &LinkedSource{
				Key:    key,
				Source: src,
				Items:  append([]*ast.ItemNode(nil), src.Items...),
			}
			if l.bibliography != nil {
				ls.Entry, _ = l.bibliography.Lookup(key)
			}
			lp.sources[key] = ls
			lp.Sources = append(lp.Sources, ls)
		}
	}

	for _, doc := range lp.Documents {
		for _, item := range doc.Items {
			ls, ok := lp.sources[bib.NormalizeRef(item.Bibref)]
			if !ok {
				diags.Addf(errors.KindOrphanItem, item.Location,
					"ITEM '@%s' has no matching SOURCE", item.Bibref).
					WithSuggestion("Add a SOURCE block for this reference")
				continue
			}
			ls.Items = append(ls.Items, item)
		}
	}

	for _, ls := range lp.Sources {
		if len(ls.Items) == 0 {
			diags.Addf(errors.KindSourceWithoutItems, ls.Source.Location,
				"SOURCE '@%s' has no items", ls.Source.Bibref)
		}
	}
}

// collector gathers codes and item chains while walking a document.
type collector struct {
	ast.BaseVisitor

	ontology  *OntologyIndex
	codes     *CodeTable
	relations *RelationIndex
	item      *ast.ItemNode // Item being walked, nil outside items

	sources, items, chains int
}

func (c *collector) VisitSource(*ast.SourceNode) error {
	c.item = nil
	c.sources++
	return nil
}

func (c *collector) VisitItem(item *ast.ItemNode) error {
	c.item = item
	c.items++
	for _, code := range item.Codes {
		c.codes.add(code, item, c.ontology)
	}
	return nil
}

func (c *collector) VisitOntology(*ast.OntologyNode) error {
	c.item = nil
	return nil
}

func (c *collector) VisitChain(chain *ast.ChainNode) error {
	if c.item == nil {
		return nil
	}
	c.chains++
	c.relations.add(chain, c.item)
	return nil
}
