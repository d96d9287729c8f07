package template

import (
	"synesis-hq/synesis/pkg/syn/ast"
)

// Model is the loaded template: every field spec indexed by scope and
// name, and the bundles of each scope. It is read-only after Build and safe
// for concurrent use.
type Model struct {
	Name string
	Node *ast.TemplateNode

	fields  map[ast.Scope][]*ast.FieldSpec
	index   map[ast.Scope]map[string]*ast.FieldSpec
	bundles map[ast.Scope][]*ast.BundleSpec
}

func newModel(node *ast.TemplateNode) *Model {
	return &Model{
		Name:    node.Name,
		Node:    node,
		fields:  make(map[ast.Scope][]*ast.FieldSpec),
		index:   make(map[ast.Scope]map[string]*ast.FieldSpec),
		bundles: make(map[ast.Scope][]*ast.BundleSpec),
	}
}

func (m *Model) add(spec *ast.FieldSpec) {
	if m.index[spec.Scope] == nil {
		m.index[spec.Scope] = make(map[string]*ast.FieldSpec)
	}
	m.index[spec.Scope][spec.Name] = spec
	m.fields[spec.Scope] = append(m.fields[spec.Scope], spec)
}

// Lookup returns the spec of the field called name in scope.
func (m *Model) Lookup(scope ast.Scope, name string) (*ast.FieldSpec, bool) {
	spec, ok := m.index[scope][name]
	return spec, ok
}

// FieldsFor returns the specs of a scope in declaration order.
func (m *Model) FieldsFor(scope ast.Scope) []*ast.FieldSpec {
	return m.fields[scope]
}

// FieldNames returns the field names of a scope in declaration order.
func (m *Model) FieldNames(scope ast.Scope) []string {
	specs := m.fields[scope]
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// BundlesFor returns the bundles of a scope in declaration order.
func (m *Model) BundlesFor(scope ast.Scope) []*ast.BundleSpec {
	return m.bundles[scope]
}

// FieldsOfType returns every spec of type t across all scopes.
func (m *Model) FieldsOfType(t ast.FieldType) []*ast.FieldSpec {
	var out []*ast.FieldSpec
	for _, scope := range ast.Scopes {
		for _, s := range m.fields[scope] {
			if s.Type == t {
				out = append(out, s)
			}
		}
	}
	return out
}

// FieldCount returns the number of field specs in the model.
func (m *Model) FieldCount() int {
	n := 0
	for _, specs := range m.fields {
		n += len(specs)
	}
	return n
}
