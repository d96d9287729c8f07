// Package linker cross-references independently parsed documents.
//
// It runs after every document has been parsed and validated and builds,
// in one sequential pass:
//   - the ontology index, rejecting duplicate concepts
//   - source-to-item links by bibliographic key, reporting orphan items
//   - the code frequency table
//   - the relation index of chain triples
//   - the topic hierarchy, rejecting cycles
//
// The indices reference the AST nodes of the documents; nothing is copied
// or modified.
package linker
