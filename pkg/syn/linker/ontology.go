package linker

import (
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// OntologyIndex maps concept keys to ontology nodes. A concept may be
// declared once per compilation.
type OntologyIndex struct {
	concepts map[string]*ast.OntologyNode
	keys     []string // Declaration order
}

// NewOntologyIndex creates an empty index.
func NewOntologyIndex() *OntologyIndex {
	return &OntologyIndex{concepts: make(map[string]*ast.OntologyNode)}
}

// BuildOntologyIndex indexes the ONTOLOGY blocks of docs in document order.
func BuildOntologyIndex(docs []*ast.Document) (*OntologyIndex, *errors.DiagnosticList) {
	diags := errors.NewDiagnosticList()
	idx := NewOntologyIndex()
	for _, doc := range docs {
		for _, ont := range doc.Ontologies {
			idx.Add(ont, diags)
		}
	}
	return idx, diags
}

// Add stores a concept. A concept whose key is already taken is reported
// as DuplicateOntologyConcept and not stored.
func (o *OntologyIndex) Add(node *ast.OntologyNode, diags *errors.DiagnosticList) bool {
	key := ast.ConceptKey(node.Concept)
	if key == "" {
		return false
	}
	if prev, ok := o.concepts[key]; ok {
		diags.Addf(errors.KindDuplicateOntologyConcept, node.Location,
			"concept '%s' is already defined at %s", node.Concept, prev.Location).
			WithSuggestion("Merge the two ONTOLOGY blocks or rename one of them")
		return false
	}
	o.concepts[key] = node
	o.keys = append(o.keys, key)
	return true
}

// Lookup returns the concept called name, ignoring case and spacing.
func (o *OntologyIndex) Lookup(name string) (*ast.OntologyNode, bool) {
	node, ok := o.concepts[ast.ConceptKey(name)]
	return node, ok
}

// HasConcept reports whether name is a declared concept.
func (o *OntologyIndex) HasConcept(name string) bool {
	_, ok := o.Lookup(name)
	return ok
}

// Len returns the number of concepts.
func (o *OntologyIndex) Len() int {
	return len(o.keys)
}

// ConceptNames returns the concept names as declared, in declaration order.
func (o *OntologyIndex) ConceptNames() []string {
	names := make([]string, len(o.keys))
	for i, k := range o.keys {
		names[i] = o.concepts[k].Concept
	}
	return names
}

// Concepts returns the nodes in declaration order.
func (o *OntologyIndex) Concepts() []*ast.OntologyNode {
	out := make([]*ast.OntologyNode, len(o.keys))
	for i, k := range o.keys {
		out[i] = o.concepts[k]
	}
	return out
}
