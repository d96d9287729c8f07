package parser

import (
	"strconv"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// buildTemplate converts a TEMPLATE block. FIELD definitions become field
// specs; FIELDS sections are kept as written and their cardinalities,
// scopes and bundles are merged into the matching specs. Consistency
// between sections and definitions is checked when the template model is
// built.
func (b *builder) buildTemplate(tb *TemplateBlock) *ast.TemplateNode {
	node := &ast.TemplateNode{
		Name:     nameOf(tb.Name),
		Location: tb.Location,
	}

	for _, fb := range tb.Fields {
		if spec := b.buildFieldSpec(fb); spec != nil {
			node.Fields = append(node.Fields, spec)
		}
	}

	for _, sb := range tb.Sections {
		scope, err := ast.ParseScope(sb.Scope.Value)
		if err != nil {
			b.diags.Addf(errors.KindTemplateError, sb.Location, "%v", err)
			continue
		}
		section := &ast.FieldsSection{Scope: scope, Location: sb.Location}
		for _, cd := range sb.Clauses {
			clause := &ast.Clause{
				Cardinality: ast.Cardinality(cd.Cardinality.Value),
				Bundle:      cd.Bundle,
				Location:    cd.Location,
			}
			for _, n := range cd.Names {
				clause.Names = append(clause.Names, ast.NameRef{
					Name:     ast.NormalizeFieldName(n.Text),
					Location: n.Location,
				})
			}
			section.Clauses = append(section.Clauses, clause)
		}
		node.Sections = append(node.Sections, section)
	}

	mergeSections(node)
	return node
}

// mergeSections applies the FIELDS sections to the field specs and creates
// the bundle specs. A spec takes the scope of the first section listing it
// unless SCOPE was declared; specs listed nowhere stay OPTIONAL and default
// to ITEM scope.
func mergeSections(node *ast.TemplateNode) {
	for _, section := range node.Sections {
		for _, clause := range section.Clauses {
			var members []string
			for _, ref := range clause.Names {
				members = append(members, ref.Name)
			}

			bundle := ""
			if clause.Bundle {
				bundle = strings.Join(members, "+")
				node.Bundles = append(node.Bundles, &ast.BundleSpec{
					Name:        bundle,
					Scope:       section.Scope,
					Members:     members,
					Cardinality: clause.Cardinality,
					Location:    clause.Location,
				})
			}

			for _, name := range members {
				spec := sectionTarget(node.Fields, name, section.Scope)
				if spec == nil {
					continue
				}
				if !spec.ScopeDeclared {
					spec.Scope = section.Scope
				}
				spec.Cardinality = clause.Cardinality
				if bundle != "" && spec.Bundle == "" {
					spec.Bundle = bundle
				}
			}
		}
	}

	for _, spec := range node.Fields {
		if spec.Scope == "" {
			spec.Scope = ast.ScopeItem
		}
	}
}

// sectionTarget picks the spec a section entry refers to: one declared
// for the section's scope, otherwise one without a declared scope that no
// other section has claimed.
func sectionTarget(specs []*ast.FieldSpec, name string, scope ast.Scope) *ast.FieldSpec {
	for _, s := range specs {
		if s.Name == name && s.Scope == scope {
			return s
		}
	}
	for _, s := range specs {
		if s.Name == name && !s.ScopeDeclared && s.Scope == "" {
			return s
		}
	}
	return nil
}

func (b *builder) buildFieldSpec(fb *FieldBlock) *ast.FieldSpec {
	spec := &ast.FieldSpec{
		Name:        ast.NormalizeFieldName(fb.Name.Text),
		Cardinality: ast.Optional,
		Description: joinLines(fb.Description),
		Location:    fb.Location,
	}

	if fb.Type == nil {
		b.diags.Addf(errors.KindTemplateError, fb.Location, "field '%s' declares no TYPE", spec.Name).
			WithSuggestion("Add 'TYPE <type>' to the FIELD line")
		return nil
	}
	ft, err := ast.ParseFieldType(fb.Type.Text)
	if err != nil {
		d := b.diags.Addf(errors.KindTemplateError, fb.Type.Location, "field '%s': %v", spec.Name, err)
		if s := errors.SuggestFieldName(strings.ToUpper(fb.Type.Text), fieldTypeNames()); s != "" {
			d.WithSuggestion(s)
		}
		return nil
	}
	spec.Type = ft

	if fb.Scope != nil {
		scope, err := ast.ParseScope(fb.Scope.Text)
		if err != nil {
			b.diags.Addf(errors.KindTemplateError, fb.Scope.Location, "field '%s': %v", spec.Name, err)
			return nil
		}
		spec.Scope = scope
		spec.ScopeDeclared = true
	}

	if fb.Arity != nil {
		op, err := ast.ParseComparator(fb.Arity.Op.Text)
		if err != nil {
			b.diags.Addf(errors.KindTemplateError, fb.Arity.Op.Location, "field '%s': %v", spec.Name, err)
			return nil
		}
		count, err := strconv.Atoi(fb.Arity.Count.Text)
		if err != nil || count < 0 {
			b.diags.Addf(errors.KindTemplateError, fb.Arity.Count.Location,
				"field '%s': ARITY needs a non-negative integer, found '%s'", spec.Name, fb.Arity.Count.Text)
			return nil
		}
		spec.Arity = &ast.Arity{Op: op, Count: count, Location: fb.Arity.Location}
	}

	if fb.Format != nil {
		lo, errLo := strconv.ParseFloat(fb.Format.Min.Text, 64)
		hi, errHi := strconv.ParseFloat(fb.Format.Max.Text, 64)
		if errLo != nil || errHi != nil || lo > hi {
			b.diags.Addf(errors.KindTemplateError, fb.Format.Location,
				"field '%s': FORMAT [%s..%s] is not a valid range", spec.Name, fb.Format.Min.Text, fb.Format.Max.Text)
			return nil
		}
		spec.Format = &ast.ScaleFormat{Min: lo, Max: hi, Location: fb.Format.Location}
	}

	for _, e := range fb.Relations {
		rel := &ast.RelationSpec{Name: nameOf(e.Name), Location: e.Location}
		if e.Text != nil {
			rel.Description = e.Text.Text
		}
		spec.Relations = append(spec.Relations, rel)
	}

	for _, e := range fb.Values {
		value := &ast.OrderedValue{Index: -1, Label: nameOf(e.Name), Location: e.Location}
		if e.Index != nil {
			idx, err := strconv.Atoi(e.Index.Text)
			if err != nil || idx < 0 {
				b.diags.Addf(errors.KindTemplateError, e.Index.Location,
					"field '%s': value index must be a non-negative integer, found '%s'", spec.Name, e.Index.Text)
				continue
			}
			value.Index = idx
		}
		if e.Text != nil {
			value.Description = e.Text.Text
		}
		spec.Values = append(spec.Values, value)
	}

	return spec
}

func fieldTypeNames() []string {
	names := make([]string, len(ast.FieldTypes))
	for i, t := range ast.FieldTypes {
		names[i] = string(t)
	}
	return names
}
