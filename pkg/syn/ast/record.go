package ast

// Field is one occurrence of "name: value" inside a SOURCE, ITEM or
// ONTOLOGY block. Type is the role resolved when the node was built
// (from the template, or from naming conventions without one); it is empty
// for fields the resolver did not recognize.
type Field struct {
	Name     string
	Type     FieldType
	Value    Value
	Location Location // Position of the field name
}

// Text returns the textual form of the value.
func (f *Field) Text() string {
	if f.Value == nil {
		return ""
	}
	return f.Value.String()
}

// Fields is an ordered list of field occurrences.
type Fields []*Field

// Get returns every occurrence of name in declaration order.
func (fs Fields) Get(name string) []*Field {
	var out []*Field
	for _, f := range fs {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// First returns the first occurrence of name, or nil.
func (fs Fields) First(name string) *Field {
	for _, f := range fs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Count returns the number of occurrences of name.
func (fs Fields) Count(name string) int {
	n := 0
	for _, f := range fs {
		if f.Name == name {
			n++
		}
	}
	return n
}

// Names returns the distinct field names in first-occurrence order.
func (fs Fields) Names() []string {
	seen := make(map[string]bool, len(fs))
	var out []string
	for _, f := range fs {
		if !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	return out
}

// SourceNode is a SOURCE block: one bibliographic source and its fields.
// Items nested inside the block are owned by it; top-level items are
// attached by bibliographic key during linking.
type SourceNode struct {
	Bibref   string // Key as written, without the leading '@'
	Fields   Fields
	Items    []*ItemNode
	Location Location
}

// Pos returns the node location.
func (n *SourceNode) Pos() Location { return n.Location }

// ItemNode is an ITEM block: one annotated excerpt of a source.
type ItemNode struct {
	Bibref       string // Back-reference to the source, without '@'
	BibrefOrigin Location
	Nested       bool // Declared inside a SOURCE block
	Quote        string
	Codes        []Code
	Memos        []string
	Chains       []*ChainNode
	Fields       Fields

	// CodeLocations maps a CODE field name to one location per code occurrence.
	CodeLocations map[string][]Location
	// NodeLocations maps a CHAIN field name to one location per chain element.
	NodeLocations map[string][]Location

	Location Location
}

// Pos returns the node location.
func (n *ItemNode) Pos() Location { return n.Location }

// OntologyNode is an ONTOLOGY block: one concept of the project vocabulary.
type OntologyNode struct {
	Concept     string
	Description string

	// Parents holds the hierarchy fields (parent, is_a, ...) as simple chains,
	// nearest ancestor first.
	Parents  []*ChainNode
	Fields   Fields
	Location Location
}

// Pos returns the node location.
func (n *OntologyNode) Pos() Location { return n.Location }

// BibliographyEntry is one entry of the bibliography document.
type BibliographyEntry struct {
	Key         string // Normalized: lower-cased and trimmed
	OriginalKey string
	Type        string // Entry type without '@', lower-cased
	Fields      map[string]string
	Location    Location
}

// Pos returns the node location.
func (e *BibliographyEntry) Pos() Location { return e.Location }

// Document is the typed content of one parsed file.
type Document struct {
	Path       string
	Project    *ProjectNode
	Template   *TemplateNode
	Sources    []*SourceNode
	Items      []*ItemNode // Top-level items only
	Ontologies []*OntologyNode
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Location
}
