package ast

import (
	"fmt"
	"strconv"
)

// TemplateNode is the schema document of a project.
type TemplateNode struct {
	Name     string
	Fields   []*FieldSpec
	Bundles  []*BundleSpec
	Sections []*FieldsSection // SOURCE/ITEM/ONTOLOGY FIELDS blocks as written
	Location Location
}

// Pos returns the node location.
func (n *TemplateNode) Pos() Location { return n.Location }

// FieldsSection is a "<SCOPE> FIELDS ... END <SCOPE> FIELDS" block.
type FieldsSection struct {
	Scope    Scope
	Clauses  []*Clause
	Location Location
}

// Clause is one REQUIRED/OPTIONAL/FORBIDDEN line of a FIELDS section.
type Clause struct {
	Cardinality Cardinality
	Bundle      bool
	Names       []NameRef
	Location    Location
}

// NameRef is a field name referenced from a clause.
type NameRef struct {
	Name     string
	Location Location
}

// FieldSpec declares one template field.
type FieldSpec struct {
	Name          string
	Type          FieldType
	Scope         Scope
	ScopeDeclared bool // SCOPE was written on the FIELD line
	Cardinality   Cardinality
	Bundle        string // Name of the owning bundle, empty when unbundled
	Arity         *Arity
	Relations     []*RelationSpec
	Values        []*OrderedValue
	Format        *ScaleFormat
	Description   string
	Location      Location
}

// Pos returns the node location.
func (f *FieldSpec) Pos() Location { return f.Location }

// IsQualifiedChain reports whether chain values alternate concepts and
// relations. CHAIN fields without RELATIONS hold plain concept sequences.
func (f *FieldSpec) IsQualifiedChain() bool {
	return f.Type == FieldTypeChain && len(f.Relations) > 0
}

// HasRelation reports whether name is a declared relation (case-sensitive).
func (f *FieldSpec) HasRelation(name string) bool {
	for _, r := range f.Relations {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RelationNames returns the declared relation names in order.
func (f *FieldSpec) RelationNames() []string {
	names := make([]string, 0, len(f.Relations))
	for _, r := range f.Relations {
		names = append(names, r.Name)
	}
	return names
}

// ValueLabels returns the declared VALUES labels in order.
func (f *FieldSpec) ValueLabels() []string {
	labels := make([]string, 0, len(f.Values))
	for _, v := range f.Values {
		labels = append(labels, v.Label)
	}
	return labels
}

// Arity is a CHAIN constraint on the number of triples.
type Arity struct {
	Op       Comparator
	Count    int
	Location Location
}

// Satisfied reports whether n triples meet the constraint.
func (a *Arity) Satisfied(n int) bool {
	return a.Op.Compare(n, a.Count)
}

func (a *Arity) String() string {
	return fmt.Sprintf("%s %d", a.Op, a.Count)
}

// RelationSpec is one entry of a RELATIONS block.
type RelationSpec struct {
	Name        string
	Description string
	Location    Location
}

// OrderedValue is one entry of a VALUES block.
type OrderedValue struct {
	Index       int // -1 when the entry has no [n] prefix
	Label       string
	Description string
	Location    Location
}

// HasIndex reports whether the entry declared an explicit position.
func (v *OrderedValue) HasIndex() bool { return v.Index >= 0 }

// ScaleFormat is the numeric range of a SCALE field, written [min..max].
type ScaleFormat struct {
	Min      float64
	Max      float64
	Location Location
}

// Contains reports whether v lies within the inclusive range.
func (s *ScaleFormat) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

func (s *ScaleFormat) String() string {
	return "[" + strconv.FormatFloat(s.Min, 'f', -1, 64) + ".." + strconv.FormatFloat(s.Max, 'f', -1, 64) + "]"
}

// BundleSpec is a group of fields that must co-occur with equal multiplicity.
// A field name belongs to at most one bundle per template.
type BundleSpec struct {
	Name        string
	Scope       Scope
	Members     []string
	Cardinality Cardinality // REQUIRED or OPTIONAL
	Location    Location
}

// Pos returns the node location.
func (b *BundleSpec) Pos() Location { return b.Location }

// Has reports whether name is a member of the bundle.
func (b *BundleSpec) Has(name string) bool {
	for _, m := range b.Members {
		if m == name {
			return true
		}
	}
	return false
}
