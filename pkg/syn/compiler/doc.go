// Package compiler runs the Synesis compilation pipeline over documents
// held in memory.
//
// Compile parses every annotation and ontology document in parallel, loads
// the template and bibliography, builds typed documents against the
// template, validates every node in parallel and finally links the forest
// sequentially. Each run gets a UUID that tags its log records and stored
// exports.
//
// File discovery and reading belong to package workspace; Compile performs
// no I/O.
package compiler
