package validator

import (
	"fmt"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
)

// checkUnknownFields reports fields the template does not declare for scope.
// A scope without declared fields is unconstrained, and ONTOLOGY hierarchy
// fields are always accepted.
func (v *Validator) checkUnknownFields(scope ast.Scope, fields ast.Fields, diags *errors.DiagnosticList) {
	names := v.model.FieldNames(scope)
	if len(names) == 0 {
		return
	}
	for _, f := range fields {
		if _, ok := v.model.Lookup(scope, f.Name); ok {
			continue
		}
		if scope == ast.ScopeOntology && parser.IsHierarchyField(f.Name) {
			continue
		}
		diags.AddWithSuggestion(errors.KindUnknownField, f.Location,
			fmt.Sprintf("field '%s' is not declared for %s", f.Name, scope),
			errors.SuggestFieldName(f.Name, names))
	}
}

// checkCardinality enforces REQUIRED and FORBIDDEN on unbundled fields.
// Bundle members are counted by checkBundles.
func (v *Validator) checkCardinality(scope ast.Scope, fields ast.Fields, loc ast.Location, diags *errors.DiagnosticList) {
	for _, spec := range v.model.FieldsFor(scope) {
		if spec.Bundle != "" {
			continue
		}
		switch spec.Cardinality {
		case ast.Required:
			if fields.Count(spec.Name) == 0 {
				diags.AddWithSuggestion(errors.KindMissingRequiredField, loc,
					fmt.Sprintf("%s is missing required field '%s'", scope, spec.Name),
					errors.SuggestMissingField(spec.Name))
			}
		case ast.Forbidden:
			for _, f := range fields.Get(spec.Name) {
				diags.Addf(errors.KindForbiddenFieldPresent, f.Location,
					"field '%s' is FORBIDDEN in %s", spec.Name, scope).
					WithSuggestion(fmt.Sprintf("Remove '%s' from the block", spec.Name))
			}
		case ast.Optional:
		}
	}
}
