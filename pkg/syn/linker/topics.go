package linker

import (
	"sort"
	"strconv"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/template"
)

// TopicNode is one concept or topic of the hierarchy.
type TopicNode struct {
	Name     string
	Concept  *ast.OntologyNode // nil for topics never declared as a concept
	Parents  []*TopicNode
	Children []*TopicNode

	rank int // ORDERED position, 0 when unset
	seq  int // First appearance
}

// TopicHierarchy arranges ontology concepts under their topics and
// declared parents. It is acyclic: an edge that would make a topic its own
// ancestor is reported as TopicCycle and left out.
type TopicHierarchy struct {
	nodes map[string]*TopicNode
	order []*TopicNode
}

// Lookup returns the node called name, ignoring case and spacing.
func (h *TopicHierarchy) Lookup(name string) (*TopicNode, bool) {
	n, ok := h.nodes[ast.ConceptKey(name)]
	return n, ok
}

// Len returns the number of nodes.
func (h *TopicHierarchy) Len() int {
	return len(h.order)
}

// Nodes returns every node in first-appearance order.
func (h *TopicHierarchy) Nodes() []*TopicNode {
	return h.order
}

// Roots returns the nodes without parents, ordered like siblings.
func (h *TopicHierarchy) Roots() []*TopicNode {
	var roots []*TopicNode
	for _, n := range h.order {
		if len(n.Parents) == 0 {
			roots = append(roots, n)
		}
	}
	sortSiblings(roots)
	return roots
}

// Ancestors returns the names of every ancestor of name, nearest first.
func (h *TopicHierarchy) Ancestors(name string) []string {
	start, ok := h.Lookup(name)
	if !ok {
		return nil
	}
	var out []string
	seen := map[*TopicNode]bool{start: true}
	queue := append([]*TopicNode(nil), start.Parents...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n.Name)
		queue = append(queue, n.Parents...)
	}
	return out
}

type topicBuilder struct {
	h     *TopicHierarchy
	model *template.Model
	diags *errors.DiagnosticList
}

// buildTopics derives the hierarchy from TOPIC fields (concept under topic)
// and hierarchy chains (concept under each successive parent). Siblings are
// ordered by their ORDERED field position, then by first appearance.
func buildTopics(ontology *OntologyIndex, model *template.Model, diags *errors.DiagnosticList) *TopicHierarchy {
	b := &topicBuilder{
		h:     &TopicHierarchy{nodes: make(map[string]*TopicNode)},
		model: model,
		diags: diags,
	}

	for _, ont := range ontology.Concepts() {
		n := b.node(ont.Concept)
		n.Concept = ont
		n.rank = b.rank(ont)
	}

	for _, ont := range ontology.Concepts() {
		for _, f := range ont.Fields {
			if f.Type == ast.FieldTypeTopic {
				b.link(ont.Concept, f.Text(), f.Value.Pos())
			}
		}
		for _, chain := range ont.Parents {
			child := ont.Concept
			for i, el := range chain.Elements {
				if i == 0 && ast.ConceptKey(el.Text) == ast.ConceptKey(child) {
					continue
				}
				b.link(child, el.Text, el.Location)
				child = el.Text
			}
		}
	}

	for _, n := range b.h.order {
		sortSiblings(n.Children)
	}
	return b.h
}

func (b *topicBuilder) node(name string) *TopicNode {
	key := ast.ConceptKey(name)
	if n, ok := b.h.nodes[key]; ok {
		return n
	}
	n := &TopicNode{Name: ast.NormalizeCode(name), seq: len(b.h.order)}
	b.h.nodes[key] = n
	b.h.order = append(b.h.order, n)
	return n
}

// link places child under parent unless the edge exists or closes a cycle.
func (b *topicBuilder) link(childName, parentName string, loc ast.Location) {
	if ast.ConceptKey(parentName) == "" {
		return
	}
	child := b.node(childName)
	parent := b.node(parentName)
	for _, p := range child.Parents {
		if p == parent {
			return
		}
	}

	if path := pathUp(parent, child); path != nil {
		names := []string{child.Name}
		for _, n := range path {
			names = append(names, n.Name)
		}
		b.diags.Addf(errors.KindTopicCycle, loc,
			"'%s' cannot be placed under '%s': %s", child.Name, parent.Name, strings.Join(names, " -> ")).
			WithSuggestion("A topic must not be its own ancestor")
		return
	}

	child.Parents = append(child.Parents, parent)
	parent.Children = append(parent.Children, child)
}

// pathUp returns the ancestor path from n up to target (both included), or
// nil when target is not n or one of its ancestors.
func pathUp(n, target *TopicNode) []*TopicNode {
	seen := make(map[*TopicNode]bool)
	var visit func(*TopicNode) []*TopicNode
	visit = func(cur *TopicNode) []*TopicNode {
		if cur == target {
			return []*TopicNode{cur}
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true
		for _, p := range cur.Parents {
			if rest := visit(p); rest != nil {
				return append([]*TopicNode{cur}, rest...)
			}
		}
		return nil
	}
	return visit(n)
}

// rank returns the position declared by the first ORDERED field of ont.
func (b *topicBuilder) rank(ont *ast.OntologyNode) int {
	for _, f := range ont.Fields {
		if f.Type != ast.FieldTypeOrdered {
			continue
		}
		text := strings.TrimSpace(f.Text())
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
		if b.model == nil {
			return 0
		}
		if spec, ok := b.model.Lookup(ast.ScopeOntology, f.Name); ok {
			for _, v := range spec.Values {
				if strings.EqualFold(v.Label, text) {
					return v.Index
				}
			}
		}
		return 0
	}
	return 0
}

func sortSiblings(nodes []*TopicNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if (a.rank > 0) != (b.rank > 0) {
			return a.rank > 0
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.seq < b.seq
	})
}
