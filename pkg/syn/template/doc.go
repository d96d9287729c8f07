// Package template loads the schema of a Synesis project.
//
// A template declares, per scope (SOURCE, ITEM, ONTOLOGY), which fields a
// record may carry, their types and cardinalities, which fields form
// bundles, and the constraints of CHAIN, ORDERED, ENUMERATED and SCALE
// fields. Build checks the declarations for consistency and returns a Model
// that the AST builder uses to type field values and the validator uses to
// check records.
package template
