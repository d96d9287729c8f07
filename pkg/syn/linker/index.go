package linker

import (
	"synesis-hq/synesis/pkg/syn/ast"
)

// CodeUsage counts the occurrences of one code across all items.
type CodeUsage struct {
	Code      string // Whitespace-normalized, spelled as first seen
	Count     int
	Locations []ast.Location
	Items     []*ast.ItemNode // Distinct items, in visit order
	Concept   *ast.OntologyNode
}

// CodeTable is the code frequency table of a project. Codes are keyed by
// their whitespace-normalized text; case is significant.
type CodeTable struct {
	entries map[string]*CodeUsage
	order   []string
}

func newCodeTable() *CodeTable {
	return &CodeTable{entries: make(map[string]*CodeUsage)}
}

func (t *CodeTable) add(code ast.Code, item *ast.ItemNode, ontology *OntologyIndex) {
	key := ast.NormalizeCode(code.Text)
	if key == "" {
		return
	}
	u, ok := t.entries[key]
	if !ok {
		u = &CodeUsage{Code: key}
		if ontology != nil {
			u.Concept, _ = ontology.Lookup(key)
		}
		t.entries[key] = u
		t.order = append(t.order, key)
	}
	u.Count++
	u.Locations = append(u.Locations, code.Location)
	if len(u.Items) == 0 || u.Items[len(u.Items)-1] != item {
		u.Items = append(u.Items, item)
	}
}

// Lookup returns the usage of code.
func (t *CodeTable) Lookup(code string) (*CodeUsage, bool) {
	u, ok := t.entries[ast.NormalizeCode(code)]
	return u, ok
}

// Len returns the number of distinct codes.
func (t *CodeTable) Len() int {
	return len(t.order)
}

// Entries returns the usages in first-occurrence order.
func (t *CodeTable) Entries() []*CodeUsage {
	out := make([]*CodeUsage, len(t.order))
	for i, k := range t.order {
		out[i] = t.entries[k]
	}
	return out
}

// Total returns the number of code occurrences.
func (t *CodeTable) Total() int {
	n := 0
	for _, u := range t.entries {
		n += u.Count
	}
	return n
}

// Relation is one (from, relation, to) triple extracted from an item chain.
type Relation struct {
	From         string
	Relation     string
	To           string
	Field        string
	Bibref       string
	Qualified    bool
	Location     ast.Location // Position of the From element
	ItemLocation ast.Location
}

// RelationIndex holds every triple of every item chain in document order.
type RelationIndex struct {
	records []Relation
	from    map[string][]int
	to      map[string][]int
}

func newRelationIndex() *RelationIndex {
	return &RelationIndex{
		from: make(map[string][]int),
		to:   make(map[string][]int),
	}
}

func (r *RelationIndex) add(chain *ast.ChainNode, item *ast.ItemNode) {
	for _, t := range chain.Triples {
		i := len(r.records)
		r.records = append(r.records, Relation{
			From:         t.From,
			Relation:     t.Relation,
			To:           t.To,
			Field:        chain.Field,
			Bibref:       item.Bibref,
			Qualified:    chain.Qualified,
			Location:     t.Location,
			ItemLocation: item.Location,
		})
		r.from[ast.ConceptKey(t.From)] = append(r.from[ast.ConceptKey(t.From)], i)
		r.to[ast.ConceptKey(t.To)] = append(r.to[ast.ConceptKey(t.To)], i)
	}
}

// All returns every triple in extraction order.
func (r *RelationIndex) All() []Relation {
	return r.records
}

// Len returns the number of triples.
func (r *RelationIndex) Len() int {
	return len(r.records)
}

// From returns the triples leaving concept.
func (r *RelationIndex) From(concept string) []Relation {
	return r.pick(r.from[ast.ConceptKey(concept)])
}

// To returns the triples arriving at concept.
func (r *RelationIndex) To(concept string) []Relation {
	return r.pick(r.to[ast.ConceptKey(concept)])
}

// Distinct returns the number of different (from, relation, to) triples.
func (r *RelationIndex) Distinct() int {
	seen := make(map[[3]string]bool, len(r.records))
	for _, rec := range r.records {
		seen[[3]string{rec.From, rec.Relation, rec.To}] = true
	}
	return len(seen)
}

func (r *RelationIndex) pick(idx []int) []Relation {
	out := make([]Relation, len(idx))
	for i, j := range idx {
		out[i] = r.records[j]
	}
	return out
}
