package ast

// Visitor provides an interface for traversing a document.
// Implement this interface to collect information from AST nodes
// (statistics, indexes, export rows, etc.).
type Visitor interface {
	VisitProject(*ProjectNode) error
	VisitTemplate(*TemplateNode) error
	VisitSource(*SourceNode) error
	VisitItem(*ItemNode) error
	VisitOntology(*OntologyNode) error
	VisitField(*Field) error
	VisitChain(*ChainNode) error
}

// BaseVisitor implements Visitor with no-op methods so that concrete
// visitors only override what they need.
type BaseVisitor struct{}

func (BaseVisitor) VisitProject(*ProjectNode) error   { return nil }
func (BaseVisitor) VisitTemplate(*TemplateNode) error { return nil }
func (BaseVisitor) VisitSource(*SourceNode) error     { return nil }
func (BaseVisitor) VisitItem(*ItemNode) error         { return nil }
func (BaseVisitor) VisitOntology(*OntologyNode) error { return nil }
func (BaseVisitor) VisitField(*Field) error           { return nil }
func (BaseVisitor) VisitChain(*ChainNode) error       { return nil }

// Walk traverses the document in declaration order and calls the visitor
// for each node. Nested items are visited right after their source.
// It returns the first error encountered, or nil if traversal completes.
func Walk(doc *Document, v Visitor) error {
	if doc.Project != nil {
		if err := v.VisitProject(doc.Project); err != nil {
			return err
		}
	}
	if doc.Template != nil {
		if err := v.VisitTemplate(doc.Template); err != nil {
			return err
		}
	}

	for _, src := range doc.Sources {
		if err := v.VisitSource(src); err != nil {
			return err
		}
		if err := walkFields(src.Fields, v); err != nil {
			return err
		}
		for _, item := range src.Items {
			if err := walkItem(item, v); err != nil {
				return err
			}
		}
	}

	for _, item := range doc.Items {
		if err := walkItem(item, v); err != nil {
			return err
		}
	}

	for _, ont := range doc.Ontologies {
		if err := v.VisitOntology(ont); err != nil {
			return err
		}
		if err := walkFields(ont.Fields, v); err != nil {
			return err
		}
		for _, parent := range ont.Parents {
			if err := v.VisitChain(parent); err != nil {
				return err
			}
		}
	}

	return nil
}

func walkItem(item *ItemNode, v Visitor) error {
	if err := v.VisitItem(item); err != nil {
		return err
	}
	return walkFields(item.Fields, v)
}

// walkFields visits each field and, for chain values, the chain itself.
func walkFields(fields Fields, v Visitor) error {
	for _, f := range fields {
		if err := v.VisitField(f); err != nil {
			return err
		}
		if chain, ok := f.Value.(*ChainNode); ok {
			if err := v.VisitChain(chain); err != nil {
				return err
			}
		}
	}
	return nil
}
