package parser

import (
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/lexer"
)

// FieldResolver returns the template declaration of a field. The template
// model implements it.
type FieldResolver interface {
	Lookup(scope ast.Scope, name string) (*ast.FieldSpec, bool)
}

// hierarchyFields name the ONTOLOGY fields that list a concept's ancestors.
var hierarchyFields = map[string]bool{
	"parent":  true,
	"parents": true,
	"is_a":    true,
	"isa":     true,
}

// IsHierarchyField reports whether name lists the ancestors of an ONTOLOGY
// concept.
func IsHierarchyField(name string) bool {
	return hierarchyFields[name]
}

// conventionTypes decide the role of a field when no declaration is found.
var conventionTypes = map[string]ast.FieldType{
	"quote":     ast.FieldTypeQuotation,
	"quotation": ast.FieldTypeQuotation,
	"code":      ast.FieldTypeCode,
	"codes":     ast.FieldTypeCode,
	"note":      ast.FieldTypeMemo,
	"notes":     ast.FieldTypeMemo,
	"memo":      ast.FieldTypeMemo,
	"memos":     ast.FieldTypeMemo,
	"chain":     ast.FieldTypeChain,
	"chains":    ast.FieldTypeChain,
	"topic":     ast.FieldTypeTopic,
	"date":      ast.FieldTypeDate,
}

// builder constructs AST nodes from a parse tree.
// It normalizes text, splits codes and chains with their exact positions,
// and accumulates diagnostics instead of stopping at the first problem.
type builder struct {
	path     string
	resolver FieldResolver
	diags    *errors.DiagnosticList
}

// Build converts a parse tree into a typed document. The resolver decides
// the type of every field; with a nil resolver, or for a field it does not
// know, naming conventions apply. Fields with an empty value are reported
// and left out.
func Build(file *File, resolver FieldResolver) (*ast.Document, *errors.DiagnosticList) {
	b := &builder{
		path:     file.Path,
		resolver: resolver,
		diags:    errors.NewDiagnosticList(),
	}

	doc := &ast.Document{Path: file.Path}
	for _, block := range file.Blocks {
		switch blk := block.(type) {
		case *ProjectBlock:
			if doc.Project != nil {
				b.diags.Addf(errors.KindParseError, blk.Location, "duplicate PROJECT block")
				continue
			}
			doc.Project = b.buildProject(blk)
		case *TemplateBlock:
			if doc.Template != nil {
				b.diags.Addf(errors.KindTemplateError, blk.Location, "duplicate TEMPLATE block")
				continue
			}
			doc.Template = b.buildTemplate(blk)
		case *RecordBlock:
			switch blk.Keyword {
			case "SOURCE":
				doc.Sources = append(doc.Sources, b.buildSource(blk))
			case "ITEM":
				doc.Items = append(doc.Items, b.buildItem(blk, nil))
			case "ONTOLOGY":
				doc.Ontologies = append(doc.Ontologies, b.buildOntology(blk))
			}
		}
	}
	return doc, b.diags
}

func (b *builder) buildProject(pb *ProjectBlock) *ast.ProjectNode {
	node := &ast.ProjectNode{
		Name:     nameOf(pb.Name),
		Location: pb.Location,
	}
	if pb.Template != nil {
		node.TemplatePath = pb.Template.Value
		node.TemplateLocation = pb.Template.Location
	}
	for _, inc := range pb.Includes {
		node.Includes = append(node.Includes, &ast.IncludeNode{
			Kind:     ast.IncludeKind(inc.Kind.Value),
			Path:     inc.Path.Value,
			Location: inc.Location,
		})
	}
	for _, e := range pb.Metadata {
		entry := ast.MetadataEntry{Key: nameOf(e.Name), Location: e.Location}
		if e.Text != nil {
			entry.Value = e.Text.Text
		}
		node.Metadata = append(node.Metadata, entry)
	}
	node.Description = joinLines(pb.Description)
	return node
}

func (b *builder) buildSource(rb *RecordBlock) *ast.SourceNode {
	node := &ast.SourceNode{Location: rb.Location}
	if rb.Bibref != nil {
		node.Bibref = rb.Bibref.Value
	}
	node.Fields = b.buildFields(ast.ScopeSource, rb.Fields)
	for _, item := range rb.Items {
		node.Items = append(node.Items, b.buildItem(item, rb))
	}
	return node
}

// buildItem builds an ITEM node. parent is the enclosing SOURCE block of a
// nested item; a nested item without its own reference inherits the
// parent's.
func (b *builder) buildItem(rb *RecordBlock, parent *RecordBlock) *ast.ItemNode {
	node := &ast.ItemNode{
		Nested:        parent != nil,
		CodeLocations: make(map[string][]ast.Location),
		NodeLocations: make(map[string][]ast.Location),
		Location:      rb.Location,
	}
	switch {
	case rb.Bibref != nil:
		node.Bibref = rb.Bibref.Value
		node.BibrefOrigin = rb.Bibref.Location
	case parent != nil && parent.Bibref != nil:
		node.Bibref = parent.Bibref.Value
		node.BibrefOrigin = parent.Bibref.Location
	}

	node.Fields = b.buildFields(ast.ScopeItem, rb.Fields)
	for _, f := range node.Fields {
		switch v := f.Value.(type) {
		case *ast.CodeList:
			for _, c := range v.Codes {
				node.Codes = append(node.Codes, c)
				node.CodeLocations[f.Name] = appendLocation(node.CodeLocations[f.Name], c.Location)
			}
		case *ast.ChainNode:
			node.Chains = append(node.Chains, v)
			for _, el := range v.Elements {
				node.NodeLocations[f.Name] = appendLocation(node.NodeLocations[f.Name], el.Location)
			}
		case *ast.TextValue:
			switch f.Type {
			case ast.FieldTypeQuotation:
				if node.Quote == "" {
					node.Quote = v.Text
				}
			case ast.FieldTypeMemo:
				node.Memos = append(node.Memos, v.Text)
			}
		}
	}
	return node
}

func (b *builder) buildOntology(rb *RecordBlock) *ast.OntologyNode {
	node := &ast.OntologyNode{Location: rb.Location}
	if rb.Concept != nil {
		node.Concept = ast.NormalizeCode(rb.Concept.Text)
	}

	node.Fields = b.buildFields(ast.ScopeOntology, rb.Fields)
	for _, f := range node.Fields {
		if f.Name == "description" && node.Description == "" {
			node.Description = f.Text()
		}
		if chain, ok := f.Value.(*ast.ChainNode); ok && hierarchyFields[f.Name] {
			node.Parents = append(node.Parents, chain)
		}
	}
	return node
}

func (b *builder) buildFields(scope ast.Scope, entries []*FieldEntry) ast.Fields {
	fields := make(ast.Fields, 0, len(entries))
	for _, e := range entries {
		if f := b.buildField(scope, e); f != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// buildField types one field entry. It returns nil when the value is
// empty or cannot be represented.
func (b *builder) buildField(scope ast.Scope, e *FieldEntry) *ast.Field {
	name := ast.NormalizeFieldName(e.Name.Text)
	if joinLines(e.Lines) == "" {
		b.diags.Addf(errors.KindParseError, e.Location, "field '%s' has no value", name).
			WithSuggestion("Write the value after the colon or on indented lines below it")
		return nil
	}

	field := &ast.Field{Name: name, Location: e.Location}
	var spec *ast.FieldSpec
	if b.resolver != nil {
		spec, _ = b.resolver.Lookup(scope, name)
	}

	switch {
	case spec != nil:
		field.Type = spec.Type
	case scope == ast.ScopeOntology && hierarchyFields[name]:
		field.Type = ast.FieldTypeChain
	default:
		field.Type = conventionTypes[name]
	}

	switch field.Type {
	case ast.FieldTypeCode:
		field.Value = b.buildCodes(e)
	case ast.FieldTypeChain:
		qualified := scope != ast.ScopeOntology || !hierarchyFields[name]
		if spec != nil {
			qualified = spec.IsQualifiedChain()
		}
		chain := b.buildChain(name, e, qualified)
		if chain == nil {
			return nil
		}
		field.Value = chain
	default:
		field.Value = &ast.TextValue{Text: joinLines(e.Lines), Location: e.Lines[0].Location}
	}
	return field
}

// buildCodes splits a CODE value on commas and line breaks. Empty pieces
// between commas are ignored.
func (b *builder) buildCodes(e *FieldEntry) *ast.CodeList {
	list := &ast.CodeList{Location: e.Lines[0].Location}
	for _, line := range e.Lines {
		for _, seg := range splitValue([]lexer.Token{line}, ",") {
			if seg.Text == "" {
				continue
			}
			list.Codes = append(list.Codes, ast.Code{Text: seg.Text, Location: seg.Location})
		}
	}
	return list
}

// buildChain splits a CHAIN value on "->". An empty element is reported and
// the field is dropped.
func (b *builder) buildChain(name string, e *FieldEntry, qualified bool) *ast.ChainNode {
	segments := splitValue(e.Lines, "->")
	elements := make([]ast.ChainElement, 0, len(segments))
	for i, seg := range segments {
		if seg.Text == "" {
			b.diags.Addf(errors.KindMalformedChain, seg.Location,
				"chain '%s' has an empty element at position %d", name, i+1).
				WithSuggestion("Remove the doubled or dangling '->'")
			return nil
		}
		elements = append(elements, ast.ChainElement{Text: seg.Text, Location: seg.Location})
	}
	return ast.NewChain(name, elements, qualified, e.Lines[0].Location)
}

// appendLocation appends loc unless it is already recorded.
func appendLocation(locs []ast.Location, loc ast.Location) []ast.Location {
	for _, l := range locs {
		if l == loc {
			return locs
		}
	}
	return append(locs, loc)
}

// nameOf returns the name spelled by tok: strings unquoted, words as written.
func nameOf(tok lexer.Token) string {
	if tok.Kind == lexer.TokenString {
		return tok.Value
	}
	return tok.Text
}
