// Package validator checks parsed annotation and ontology nodes against a
// template model.
//
// Each SOURCE (with its nested items), top-level ITEM and ONTOLOGY node is
// validated on its own:
//   - unknown fields and REQUIRED/FORBIDDEN cardinality
//   - bundle balance, one diagnostic per bundle and node
//   - chain shape, relation vocabulary and ARITY
//   - SCALE ranges and ORDERED/ENUMERATED vocabularies
//   - bibliographic references and codes against the loaded indices
//
// Problems are returned as diagnostics; validation never stops early and
// never modifies the nodes it reads.
package validator
