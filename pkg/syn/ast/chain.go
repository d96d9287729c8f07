package ast

import "strings"

// ImplicitRelation is the relation recorded between consecutive concepts of
// a chain whose field declares no relation vocabulary.
const ImplicitRelation = "IMPLICIT"

// ChainElement is one concept or relation name of a chain with its position.
type ChainElement struct {
	Text     string
	Location Location
}

// Triple is one (from, relation, to) step derived from a chain.
type Triple struct {
	From     string
	Relation string
	To       string
	Location Location // Position of the From element
}

// ChainNode is an ordered sequence of concept and relation names.
// Qualified chains alternate concept, relation, concept, ...; simple chains
// hold only concepts.
type ChainNode struct {
	Field     string
	Elements  []ChainElement
	Qualified bool
	Triples   []Triple
	Location  Location
}

// NewChain builds a chain and derives its triples. A qualified sequence of
// length 2k+1 yields k triples; an even-length qualified sequence yields the
// triples of its longest well-formed prefix and is reported by validation.
func NewChain(field string, elements []ChainElement, qualified bool, loc Location) *ChainNode {
	c := &ChainNode{
		Field:     field,
		Elements:  elements,
		Qualified: qualified,
		Location:  loc,
	}
	c.Triples = deriveTriples(elements, qualified)
	return c
}

func deriveTriples(elements []ChainElement, qualified bool) []Triple {
	var triples []Triple
	if qualified {
		for i := 0; i+2 < len(elements); i += 2 {
			triples = append(triples, Triple{
				From:     elements[i].Text,
				Relation: elements[i+1].Text,
				To:       elements[i+2].Text,
				Location: elements[i].Location,
			})
		}
		return triples
	}
	for i := 0; i+1 < len(elements); i++ {
		triples = append(triples, Triple{
			From:     elements[i].Text,
			Relation: ImplicitRelation,
			To:       elements[i+1].Text,
			Location: elements[i].Location,
		})
	}
	return triples
}

// Pos returns the node location.
func (c *ChainNode) Pos() Location { return c.Location }

// Nodes returns the element texts in order.
func (c *ChainNode) Nodes() []string {
	out := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		out[i] = e.Text
	}
	return out
}

// Concepts returns the concept elements (even positions of a qualified chain,
// every element of a simple chain).
func (c *ChainNode) Concepts() []ChainElement {
	if !c.Qualified {
		return c.Elements
	}
	var out []ChainElement
	for i := 0; i < len(c.Elements); i += 2 {
		out = append(out, c.Elements[i])
	}
	return out
}

// Relations returns the relation elements of a qualified chain.
func (c *ChainNode) Relations() []ChainElement {
	if !c.Qualified {
		return nil
	}
	var out []ChainElement
	for i := 1; i < len(c.Elements); i += 2 {
		out = append(out, c.Elements[i])
	}
	return out
}

// WellFormed reports whether a qualified chain has odd length of at least 3,
// or a simple chain has at least two concepts.
func (c *ChainNode) WellFormed() bool {
	if c.Qualified {
		return len(c.Elements) >= 3 && len(c.Elements)%2 == 1
	}
	return len(c.Elements) >= 2
}

func (c *ChainNode) String() string {
	return strings.Join(c.Nodes(), " -> ")
}
