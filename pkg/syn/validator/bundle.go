package validator

import (
	"fmt"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// checkBundles reports at most one diagnostic per bundle: a REQUIRED bundle
// with no members present, or members present with different counts.
// Members of a FORBIDDEN bundle are reported one by one.
func (v *Validator) checkBundles(scope ast.Scope, fields ast.Fields, loc ast.Location, diags *errors.DiagnosticList) {
	for _, b := range v.model.BundlesFor(scope) {
		if b.Cardinality == ast.Forbidden {
			for _, m := range b.Members {
				for _, f := range fields.Get(m) {
					diags.Addf(errors.KindForbiddenFieldPresent, f.Location,
						"field '%s' is FORBIDDEN in %s", m, scope).
						WithSuggestion(fmt.Sprintf("Remove '%s' from the block", m))
				}
			}
			continue
		}

		counts := make([]int, len(b.Members))
		total := 0
		balanced := true
		for i, m := range b.Members {
			counts[i] = fields.Count(m)
			total += counts[i]
			if counts[i] != counts[0] {
				balanced = false
			}
		}

		if total == 0 {
			if b.Cardinality == ast.Required {
				diags.AddWithSuggestion(errors.KindMissingRequiredField, loc,
					fmt.Sprintf("%s is missing required bundle (%s)", scope, strings.Join(b.Members, ", ")),
					fmt.Sprintf("Add one of each: %s", strings.Join(b.Members, ", ")))
			}
			continue
		}
		if balanced {
			continue
		}

		parts := make([]string, len(b.Members))
		for i, m := range b.Members {
			parts[i] = fmt.Sprintf("%s=%d", m, counts[i])
		}
		diags.AddWithSuggestion(errors.KindUnbalancedBundle, loc,
			fmt.Sprintf("bundle (%s) is unbalanced: %s", strings.Join(b.Members, ", "), strings.Join(parts, ", ")),
			"Every member of a bundle must appear the same number of times")
	}
}
