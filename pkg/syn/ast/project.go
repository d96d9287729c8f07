package ast

// IncludeKind identifies what an INCLUDE declaration pulls into a project.
type IncludeKind string

const (
	IncludeBibliography IncludeKind = "BIBLIOGRAPHY"
	IncludeAnnotations  IncludeKind = "ANNOTATIONS"
	IncludeOntology     IncludeKind = "ONTOLOGY"
)

// IncludeNode is one INCLUDE declaration inside a PROJECT block.
type IncludeNode struct {
	Kind     IncludeKind
	Path     string // As written; may be a glob pattern
	Location Location
}

// Pos returns the node location.
func (n *IncludeNode) Pos() Location { return n.Location }

// MetadataEntry is one key/value line of a METADATA block.
type MetadataEntry struct {
	Key      string
	Value    string
	Location Location
}

// ProjectNode is the root of a project file.
type ProjectNode struct {
	Name             string
	TemplatePath     string
	TemplateLocation Location
	Includes         []*IncludeNode
	Metadata         []MetadataEntry
	Description      string
	Location         Location
}

// Pos returns the node location.
func (n *ProjectNode) Pos() Location { return n.Location }

// IncludesOf returns the include declarations of the given kind in order.
func (n *ProjectNode) IncludesOf(kind IncludeKind) []*IncludeNode {
	var out []*IncludeNode
	for _, inc := range n.Includes {
		if inc.Kind == kind {
			out = append(out, inc)
		}
	}
	return out
}

// Meta returns the value of a metadata key.
func (n *ProjectNode) Meta(key string) (string, bool) {
	for _, e := range n.Metadata {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}
