// Package ast defines the typed abstract syntax tree of the Synesis
// annotation language.
//
// A compilation produces one Document per input file. Documents hold the
// project declaration, the template schema, SOURCE/ITEM blocks and ONTOLOGY
// concepts. Every node carries the Location it was built from, and every
// code or chain element keeps its own Location so diagnostics and exports
// can point at the exact character that produced a value.
//
// # Core Types
//
// ProjectNode: project name, template reference, includes, metadata
//
// TemplateNode: FieldSpec and BundleSpec declarations
//
// SourceNode, ItemNode: annotated bibliographic sources and their excerpts
//
// OntologyNode: vocabulary concepts with descriptive fields and parents
//
// ChainNode: concept/relation sequences and their derived Triples
//
// Value: sealed union of *TextValue, *CodeList and *ChainNode
//
// # Immutability
//
// Nodes are built once by the parser's AST builder and are never modified
// afterwards. The validator reads them, and the linker indexes them by
// pointer without copying. Code that needs a different node builds a new
// one.
//
// # Traversal
//
//	type codeCounter struct {
//	    ast.BaseVisitor
//	    n int
//	}
//
//	func (c *codeCounter) VisitField(f *ast.Field) error {
//	    if codes, ok := f.Value.(*ast.CodeList); ok {
//	        c.n += len(codes.Codes)
//	    }
//	    return nil
//	}
//
//	counter := &codeCounter{}
//	if err := ast.Walk(doc, counter); err != nil {
//	    log.Fatal(err)
//	}
package ast
