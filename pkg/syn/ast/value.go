package ast

import "strings"

// ValueKind discriminates the concrete Value variants.
type ValueKind string

const (
	ValueKindText  ValueKind = "text"
	ValueKindCodes ValueKind = "codes"
	ValueKindChain ValueKind = "chain"
)

// Value is the value of one field occurrence. The variants are
// *TextValue, *CodeList and *ChainNode; the interface is sealed.
type Value interface {
	Kind() ValueKind
	String() string
	Pos() Location
	value()
}

// TextValue is normalized free text.
type TextValue struct {
	Text     string
	Location Location // Position of the first character of the text
}

func (v *TextValue) Kind() ValueKind { return ValueKindText }
func (v *TextValue) String() string  { return v.Text }
func (v *TextValue) Pos() Location   { return v.Location }
func (v *TextValue) value()          {}

// Code is one element of a comma-separated code list.
type Code struct {
	Text     string
	Location Location
}

// CodeList is the value of a CODE field, one entry per comma-separated term.
type CodeList struct {
	Codes    []Code
	Location Location
}

func (v *CodeList) Kind() ValueKind { return ValueKindCodes }
func (v *CodeList) Pos() Location   { return v.Location }
func (v *CodeList) value()          {}

func (v *CodeList) String() string {
	parts := make([]string, len(v.Codes))
	for i, c := range v.Codes {
		parts[i] = c.Text
	}
	return strings.Join(parts, ", ")
}

func (c *ChainNode) Kind() ValueKind { return ValueKindChain }
func (c *ChainNode) value()          {}
