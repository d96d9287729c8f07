package template

import (
	"fmt"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
)

// Build checks a template node and indexes it into a Model. Problems are
// reported as TemplateError diagnostics; specs that duplicate an earlier
// definition are left out of the model. The returned model is never nil.
func Build(node *ast.TemplateNode) (*Model, *errors.DiagnosticList) {
	diags := errors.NewDiagnosticList()
	model := newModel(node)

	for _, spec := range node.Fields {
		if prev, ok := model.Lookup(spec.Scope, spec.Name); ok {
			diags.Addf(errors.KindTemplateError, spec.Location,
				"duplicate definition of field '%s' in %s scope (first defined at %s)", spec.Name, spec.Scope, prev.Location)
			continue
		}
		checkSpec(spec, diags)
		model.add(spec)
	}

	checkSections(node, model, diags)

	for _, b := range node.Bundles {
		model.bundles[b.Scope] = append(model.bundles[b.Scope], b)
	}
	return model, diags
}

// checkSpec verifies that a spec only carries clauses its type supports.
func checkSpec(spec *ast.FieldSpec, diags *errors.DiagnosticList) {
	if spec.Type != ast.FieldTypeChain {
		if spec.Arity != nil {
			diags.Addf(errors.KindTemplateError, spec.Arity.Location,
				"ARITY is only allowed on CHAIN fields, '%s' is %s", spec.Name, spec.Type)
		}
		if len(spec.Relations) > 0 {
			diags.Addf(errors.KindTemplateError, spec.Relations[0].Location,
				"RELATIONS are only allowed on CHAIN fields, '%s' is %s", spec.Name, spec.Type)
		}
	}

	if spec.Format != nil && spec.Type != ast.FieldTypeScale {
		diags.Addf(errors.KindTemplateError, spec.Format.Location,
			"FORMAT is only allowed on SCALE fields, '%s' is %s", spec.Name, spec.Type)
	}

	if len(spec.Values) > 0 && spec.Type != ast.FieldTypeOrdered && spec.Type != ast.FieldTypeEnumerated {
		diags.Addf(errors.KindTemplateError, spec.Values[0].Location,
			"VALUES are only allowed on ORDERED and ENUMERATED fields, '%s' is %s", spec.Name, spec.Type)
	}

	seenRel := make(map[string]bool)
	for _, r := range spec.Relations {
		if seenRel[r.Name] {
			diags.Addf(errors.KindTemplateError, r.Location, "relation '%s' is declared twice in field '%s'", r.Name, spec.Name)
		}
		seenRel[r.Name] = true
	}

	seenLabel := make(map[string]bool)
	seenIndex := make(map[int]bool)
	for _, v := range spec.Values {
		if seenLabel[v.Label] {
			diags.Addf(errors.KindTemplateError, v.Location, "value '%s' is declared twice in field '%s'", v.Label, spec.Name)
		}
		seenLabel[v.Label] = true

		if spec.Type != ast.FieldTypeOrdered {
			continue
		}
		if !v.HasIndex() {
			diags.AddWithSuggestion(errors.KindTemplateError, v.Location,
				fmt.Sprintf("ORDERED value '%s' of field '%s' has no index", v.Label, spec.Name),
				fmt.Sprintf("Write it as '[n] %s: ...'", v.Label))
			continue
		}
		if seenIndex[v.Index] {
			diags.Addf(errors.KindTemplateError, v.Location, "index %d is used twice in field '%s'", v.Index, spec.Name)
		}
		seenIndex[v.Index] = true
	}
}

// checkSections verifies the FIELDS sections against the definitions.
func checkSections(node *ast.TemplateNode, model *Model, diags *errors.DiagnosticList) {
	defined := make(map[string][]*ast.FieldSpec)
	var names []string
	for _, spec := range node.Fields {
		if len(defined[spec.Name]) == 0 {
			names = append(names, spec.Name)
		}
		defined[spec.Name] = append(defined[spec.Name], spec)
	}

	listed := make(map[string]ast.Location) // scope/name -> first listing
	bundleOf := make(map[string]string)     // name -> bundle name, any scope

	for _, section := range node.Sections {
		for _, clause := range section.Clauses {
			if clause.Bundle {
				checkBundleClause(section.Scope, clause, diags)
			}

			for _, ref := range clause.Names {
				key := string(section.Scope) + "/" + ref.Name

				if first, ok := listed[key]; ok {
					diags.Addf(errors.KindTemplateError, ref.Location,
						"field '%s' is listed twice in %s FIELDS (first at %s)", ref.Name, section.Scope, first)
				} else {
					listed[key] = ref.Location
				}

				if _, ok := model.Lookup(section.Scope, ref.Name); !ok {
					reportUnresolvedName(section.Scope, ref, defined[ref.Name], names, diags)
				}

				if clause.Bundle {
					bundle := bundleName(clause)
					if other, ok := bundleOf[ref.Name]; ok && other != bundle {
						diags.Addf(errors.KindTemplateError, ref.Location,
							"field '%s' belongs to two bundles (%s and %s)", ref.Name, other, bundle)
					} else {
						bundleOf[ref.Name] = bundle
					}
				}
			}
		}
	}
}

func checkBundleClause(scope ast.Scope, clause *ast.Clause, diags *errors.DiagnosticList) {
	if clause.Cardinality == ast.Forbidden {
		diags.Addf(errors.KindTemplateError, clause.Location, "a BUNDLE cannot be FORBIDDEN")
	}
	if len(clause.Names) < 2 {
		diags.Addf(errors.KindTemplateError, clause.Location, "a BUNDLE in %s FIELDS needs at least two fields", scope)
	}
}

func reportUnresolvedName(scope ast.Scope, ref ast.NameRef, specs []*ast.FieldSpec, names []string, diags *errors.DiagnosticList) {
	if len(specs) == 0 {
		d := diags.Addf(errors.KindTemplateError, ref.Location,
			"field '%s' is listed in %s FIELDS but never defined", ref.Name, scope)
		if s, ok := errors.NearestWithin(ref.Name, names, 3); ok {
			d.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", s))
		} else {
			d.WithSuggestion(fmt.Sprintf("Add 'FIELD %s TYPE <type>' to the template", ref.Name))
		}
		return
	}

	var scopes []string
	declared := false
	for _, s := range specs {
		scopes = append(scopes, string(s.Scope))
		declared = declared || s.ScopeDeclared
	}
	if declared {
		diags.Addf(errors.KindTemplateError, ref.Location,
			"field '%s' is declared with SCOPE %s but listed in %s FIELDS", ref.Name, strings.Join(scopes, ", "), scope)
		return
	}
	diags.Addf(errors.KindTemplateError, ref.Location,
		"field '%s' is already listed in %s FIELDS", ref.Name, strings.Join(scopes, ", "))
}

func bundleName(clause *ast.Clause) string {
	names := make([]string, len(clause.Names))
	for i, ref := range clause.Names {
		names[i] = ref.Name
	}
	return strings.Join(names, "+")
}

// Load parses a template document and builds its model. Parse and template
// diagnostics are returned together; the error is non-nil only for fatal
// input problems.
func Load(p *parser.Parser, data []byte, path string) (*Model, *errors.DiagnosticList, error) {
	doc, diags, err := p.ParseDocument(data, path, nil)
	if err != nil {
		return nil, nil, err
	}

	if doc.Template == nil {
		diags.Addf(errors.KindTemplateError, ast.Location{File: path, Line: 1, Column: 1},
			"no TEMPLATE block found").WithSuggestion("Start the file with 'TEMPLATE <name>'")
		return newModel(&ast.TemplateNode{Location: ast.Location{File: path}}), diags, nil
	}

	model, buildDiags := Build(doc.Template)
	diags.Merge(buildDiags)
	return model, diags, nil
}
