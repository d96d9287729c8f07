package validator

import (
	"fmt"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
)

// checkBibref resolves a reference against the bibliography. An empty
// bibliography resolves nothing; a nil one disables the check.
func (v *Validator) checkBibref(ref string, loc ast.Location, diags *errors.DiagnosticList) {
	if v.bibliography == nil || ref == "" {
		return
	}
	if _, ok := v.bibliography.Lookup(ref); ok {
		return
	}
	if best, ok := v.bibliography.Suggest(ref, v.distance); ok {
		diags.AddWithSuggestion(errors.KindUnresolvedBibref, loc,
			fmt.Sprintf("unresolved bibliographic reference '@%s'", ref),
			fmt.Sprintf("Did you mean '@%s'?", best))
		return
	}
	diags.Addf(errors.KindUnresolvedBibref, loc,
		"unresolved bibliographic reference '@%s': no bibliography match", ref)
}

// checkNestedBibref reports a nested item whose own reference differs from
// its source. Inherited references always match.
func (v *Validator) checkNestedBibref(item *ast.ItemNode, parent *ast.SourceNode, diags *errors.DiagnosticList) {
	if item.Bibref == "" || bib.NormalizeRef(item.Bibref) == bib.NormalizeRef(parent.Bibref) {
		return
	}
	diags.Addf(errors.KindNestedBibrefMismatch, item.BibrefOrigin,
		"nested item references '@%s' inside SOURCE '@%s'", item.Bibref, parent.Bibref).
		WithSuggestion("Remove the reference or move the item out of the SOURCE block")
}
