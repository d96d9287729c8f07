// Synesis compiles qualitative research annotations into a validated,
// linked corpus.
//
// A project file (.synp) names a template (.synt), BibTeX bibliographies,
// annotation files (.syn) and ontology files (.syno). The compiler checks
// every annotation against the template, resolves references and codes,
// and exports the linked corpus as JSON, CSV tables or a SQLite database.
//
// Usage:
//
//	# Compile the project in the current directory
//	synesis compile
//
//	# Compile and export JSON and CSV even when there are errors
//	synesis compile study.synp --format json,csv --force
//
//	# Print diagnostics as JSON for an editor
//	synesis check --format json
//
//	# Recompile on every change
//	synesis watch
//
//	# Scaffold a new project
//	synesis init my-study
package main

import "os"

func main() {
	os.Exit(Execute())
}
