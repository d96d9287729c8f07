package validator

import (
	"fmt"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// checkChain validates one chain value against its field spec: shape,
// relation vocabulary and arity. Arity is not checked on a malformed chain.
func (v *Validator) checkChain(spec *ast.FieldSpec, chain *ast.ChainNode, diags *errors.DiagnosticList) {
	malformed := chain.Qualified && !chain.WellFormed()
	if malformed {
		diags.Addf(errors.KindMalformedChain, chain.Location,
			"chain '%s' has %d element(s); it must alternate concept and relation and end with a concept",
			spec.Name, len(chain.Elements)).
			WithSuggestion("Write the chain as Concept -> RELATION -> Concept")
	}

	if chain.Qualified {
		known := spec.RelationNames()
		for _, rel := range chain.Relations() {
			if spec.HasRelation(rel.Text) {
				continue
			}
			d := diags.Addf(errors.KindUnknownRelation, rel.Location,
				"relation '%s' is not declared for field '%s'", rel.Text, spec.Name)
			if best, _, ok := errors.Nearest(rel.Text, known); ok {
				d.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
			}
		}
	}

	if spec.Arity != nil && !malformed && !spec.Arity.Satisfied(len(chain.Triples)) {
		diags.Addf(errors.KindChainArityViolation, chain.Location,
			"chain '%s' has %d triple(s), field requires ARITY %s",
			spec.Name, len(chain.Triples), spec.Arity)
	}
}
