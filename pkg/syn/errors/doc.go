// Package errors defines the diagnostic model of the Synesis compiler.
//
// Problems found in annotation documents are values, not failures: the
// lexer, parser, template loader, validator and linker all append
// Diagnostic records to a DiagnosticList, and a compilation fails only when
// the final list holds an error-severity entry. LexError and ParseError
// abandon the enclosing block and are converted to diagnostics by the
// parser. FatalError is reserved for input that cannot be read at all.
//
// # Diagnostic Format
//
//	error[UnknownRelation] unknown relation 'CAUSES' in field 'chain'
//	  --> data/interviews.syn:12:19
//	  = suggestion: Did you mean 'ENABLES'?
//
// # Suggestions
//
// Distance is a pure Levenshtein function over characters. Nearest and
// NearestWithin pick the closest candidate deterministically (the earliest
// candidate wins ties), and SuggestFieldName formats "Did you mean" hints.
package errors
