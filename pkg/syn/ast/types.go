package ast

import (
	"fmt"
	"strings"
)

// FieldType is the declared type of a template field.
// The set is closed: every consumer switches over all of the constants below.
type FieldType string

const (
	FieldTypeQuotation  FieldType = "QUOTATION"
	FieldTypeMemo       FieldType = "MEMO"
	FieldTypeCode       FieldType = "CODE"
	FieldTypeChain      FieldType = "CHAIN"
	FieldTypeText       FieldType = "TEXT"
	FieldTypeDate       FieldType = "DATE"
	FieldTypeScale      FieldType = "SCALE"
	FieldTypeEnumerated FieldType = "ENUMERATED"
	FieldTypeOrdered    FieldType = "ORDERED"
	FieldTypeTopic      FieldType = "TOPIC"
)

// FieldTypes lists every field type in declaration order.
var FieldTypes = []FieldType{
	FieldTypeQuotation,
	FieldTypeMemo,
	FieldTypeCode,
	FieldTypeChain,
	FieldTypeText,
	FieldTypeDate,
	FieldTypeScale,
	FieldTypeEnumerated,
	FieldTypeOrdered,
	FieldTypeTopic,
}

// ParseFieldType converts a keyword (any case) to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToUpper(strings.TrimSpace(s)))
	if t.IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// IsValid reports whether t is one of the declared field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeQuotation, FieldTypeMemo, FieldTypeCode, FieldTypeChain,
		FieldTypeText, FieldTypeDate, FieldTypeScale, FieldTypeEnumerated,
		FieldTypeOrdered, FieldTypeTopic:
		return true
	}
	return false
}

// IsTextual reports whether values of this type are free text.
func (t FieldType) IsTextual() bool {
	switch t {
	case FieldTypeQuotation, FieldTypeMemo, FieldTypeText, FieldTypeDate, FieldTypeTopic:
		return true
	}
	return false
}

// Scope names the kind of node a field belongs to.
type Scope string

const (
	ScopeSource   Scope = "SOURCE"
	ScopeItem     Scope = "ITEM"
	ScopeOntology Scope = "ONTOLOGY"
)

// Scopes lists every scope in declaration order.
var Scopes = []Scope{ScopeSource, ScopeItem, ScopeOntology}

// ParseScope converts a keyword (any case) to a Scope.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToUpper(strings.TrimSpace(s))); sc {
	case ScopeSource, ScopeItem, ScopeOntology:
		return sc, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Cardinality constrains how often a field may appear.
type Cardinality string

const (
	Required  Cardinality = "REQUIRED"
	Optional  Cardinality = "OPTIONAL"
	Forbidden Cardinality = "FORBIDDEN"
)

// Comparator is the operator of an ARITY constraint.
type Comparator string

const (
	CompareEqual       Comparator = "="
	CompareAtLeast     Comparator = ">="
	CompareAtMost      Comparator = "<="
	CompareGreaterThan Comparator = ">"
	CompareLessThan    Comparator = "<"
)

// ParseComparator converts an operator literal to a Comparator.
func ParseComparator(s string) (Comparator, error) {
	switch c := Comparator(s); c {
	case CompareEqual, CompareAtLeast, CompareAtMost, CompareGreaterThan, CompareLessThan:
		return c, nil
	}
	return "", fmt.Errorf("unknown comparator %q", s)
}

// Compare applies the comparator to n and limit.
func (c Comparator) Compare(n, limit int) bool {
	switch c {
	case CompareEqual:
		return n == limit
	case CompareAtLeast:
		return n >= limit
	case CompareAtMost:
		return n <= limit
	case CompareGreaterThan:
		return n > limit
	case CompareLessThan:
		return n < limit
	}
	return false
}

// NormalizeFieldName lower-cases ALL-CAPS names longer than one character.
// Mixed-case names are kept as written.
func NormalizeFieldName(name string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > 1 && strings.ToUpper(name) == name && strings.ToLower(name) != name {
		return strings.ToLower(name)
	}
	return name
}

// NormalizeCode collapses internal whitespace runs to one space and trims.
// Case is preserved.
func NormalizeCode(code string) string {
	return strings.Join(strings.Fields(code), " ")
}

// ConceptKey is the lookup key for ontology concepts and codes:
// whitespace-collapsed and lower-cased.
func ConceptKey(name string) string {
	return strings.ToLower(NormalizeCode(name))
}
