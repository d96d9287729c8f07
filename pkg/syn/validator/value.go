package validator

import (
	"fmt"
	"strconv"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// checkValue validates one field occurrence against its declared type.
// Undeclared fields were reported by checkUnknownFields; only the concepts
// of their chains are still looked up.
func (v *Validator) checkValue(scope ast.Scope, f *ast.Field, diags *errors.DiagnosticList) {
	spec, ok := v.model.Lookup(scope, f.Name)
	if !ok {
		if chain, isChain := f.Value.(*ast.ChainNode); isChain {
			v.checkConcepts(chain.Concepts(), diags)
		}
		return
	}

	switch spec.Type {
	case ast.FieldTypeChain:
		chain, isChain := f.Value.(*ast.ChainNode)
		if !isChain {
			v.invalidType(spec, f, diags)
			return
		}
		v.checkChain(spec, chain, diags)
		v.checkConcepts(chain.Concepts(), diags)
	case ast.FieldTypeCode:
		list, isCodes := f.Value.(*ast.CodeList)
		if !isCodes {
			v.invalidType(spec, f, diags)
			return
		}
		for _, c := range list.Codes {
			v.checkConcept(c.Text, c.Location, diags)
		}
	case ast.FieldTypeScale:
		v.checkScale(spec, f, diags)
	case ast.FieldTypeOrdered:
		v.checkOrdered(spec, f, diags)
	case ast.FieldTypeEnumerated:
		v.checkEnumerated(spec, f, diags)
	case ast.FieldTypeQuotation, ast.FieldTypeMemo, ast.FieldTypeText,
		ast.FieldTypeDate, ast.FieldTypeTopic:
	}
}

func (v *Validator) invalidType(spec *ast.FieldSpec, f *ast.Field, diags *errors.DiagnosticList) {
	diags.Addf(errors.KindInvalidFieldType, f.Location,
		"field '%s' is declared as %s but holds a %s value", spec.Name, spec.Type, f.Value.Kind())
}

func (v *Validator) checkScale(spec *ast.FieldSpec, f *ast.Field, diags *errors.DiagnosticList) {
	text := strings.TrimSpace(f.Text())
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		diags.Addf(errors.KindInvalidFieldType, f.Value.Pos(),
			"value '%s' of SCALE field '%s' is not a number", text, spec.Name)
		return
	}
	if spec.Format != nil && !spec.Format.Contains(n) {
		diags.Addf(errors.KindScaleOutOfRange, f.Value.Pos(),
			"value %s of field '%s' is outside %s", text, spec.Name, spec.Format).
			WithSuggestion(fmt.Sprintf("Use a value between %g and %g", spec.Format.Min, spec.Format.Max))
	}
}

// checkOrdered accepts a declared index or a declared label in any case.
func (v *Validator) checkOrdered(spec *ast.FieldSpec, f *ast.Field, diags *errors.DiagnosticList) {
	if len(spec.Values) == 0 {
		return
	}
	text := strings.TrimSpace(f.Text())
	if idx, err := strconv.Atoi(text); err == nil {
		for _, val := range spec.Values {
			if val.Index == idx {
				return
			}
		}
	} else {
		for _, val := range spec.Values {
			if strings.EqualFold(val.Label, text) {
				return
			}
		}
	}

	options := make([]string, len(spec.Values))
	for i, val := range spec.Values {
		options[i] = fmt.Sprintf("[%d] %s", val.Index, val.Label)
	}
	diags.Addf(errors.KindInvalidOrderedValue, f.Value.Pos(),
		"value '%s' is not a position of ORDERED field '%s'", text, spec.Name).
		WithSuggestion("Use one of: " + strings.Join(options, ", "))
}

// checkEnumerated matches the declared VALUES labels exactly; a field
// without VALUES takes its vocabulary from the ontology.
func (v *Validator) checkEnumerated(spec *ast.FieldSpec, f *ast.Field, diags *errors.DiagnosticList) {
	text := strings.TrimSpace(f.Text())
	if len(spec.Values) > 0 {
		labels := spec.ValueLabels()
		for _, l := range labels {
			if l == text {
				return
			}
		}
		d := diags.Addf(errors.KindInvalidEnumeratedValue, f.Value.Pos(),
			"value '%s' is not one of the values of field '%s'", text, spec.Name)
		if best, ok := errors.NearestWithin(text, labels, v.distance); ok {
			d.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
		} else {
			d.WithSuggestion("Use one of: " + strings.Join(labels, ", "))
		}
		return
	}

	if v.vocabulary == nil || v.vocabulary.Len() == 0 || v.vocabulary.HasConcept(text) {
		return
	}
	d := diags.Addf(errors.KindInvalidEnumeratedValue, f.Value.Pos(),
		"value '%s' of field '%s' is not an ontology concept", text, spec.Name)
	if best, ok := errors.NearestWithin(text, v.vocabulary.ConceptNames(), v.distance); ok {
		d.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
	}
}

func (v *Validator) checkConcepts(elements []ast.ChainElement, diags *errors.DiagnosticList) {
	for _, el := range elements {
		v.checkConcept(el.Text, el.Location, diags)
	}
}

// checkConcept warns about a code absent from a non-empty ontology.
func (v *Validator) checkConcept(name string, loc ast.Location, diags *errors.DiagnosticList) {
	if v.vocabulary == nil || v.vocabulary.Len() == 0 || v.vocabulary.HasConcept(name) {
		return
	}
	d := diags.Addf(errors.KindUndefinedCode, loc, "code '%s' is not defined in the ontology", name)
	if best, ok := errors.NearestWithin(name, v.vocabulary.ConceptNames(), v.distance); ok {
		d.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
	}
}
