// Package parser turns Synesis token streams into parse trees and typed
// documents.
//
// Parsing is a single LL(1) pass without backtracking. Each top-level block
// (PROJECT, TEMPLATE, SOURCE, ITEM, ONTOLOGY) is parsed on its own: when a
// block is malformed the parser records a ParseError diagnostic carrying the
// expected token set and what was found, skips to the next top-level block
// and continues. A broken ITEM therefore never hides its siblings.
//
// Build converts a parse tree into an ast.Document. Field values are typed
// through a FieldResolver (the template model), text is normalized with
// NormalizeText, and CODE and CHAIN values are split into elements that
// keep the exact line and column of their first character, even when the
// value spans several indented lines.
//
// Basic usage:
//
//	p := parser.NewParser()
//	file, diags, err := p.ParseBytes(src, "data/items.syn")
//	if err != nil {
//	    // fatal: unreadable input or bad encoding
//	}
//	doc, buildDiags := parser.Build(file, templateModel)
//	diags.Merge(buildDiags)
package parser
