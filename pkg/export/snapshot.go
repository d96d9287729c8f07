package export

import (
	"strings"
	"time"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/syn/linker"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed" // Exported with --force despite failures
)

// Snapshot is the flat, serializable view of one compilation that every
// exporter writes. It holds no AST pointers.
type Snapshot struct {
	Run         RunRecord          `json:"run"`
	Project     ProjectRecord      `json:"project"`
	Sources     []SourceRecord     `json:"sources"`
	Items       []ItemRecord       `json:"items"`
	Codes       []CodeRecord       `json:"codes"`
	Relations   []RelationRecord   `json:"relations"`
	Ontology    []ConceptRecord    `json:"ontology"`
	Topics      []TopicRecord      `json:"topics"`
	Diagnostics []DiagnosticRecord `json:"diagnostics"`
}

// RunRecord describes the compilation itself.
type RunRecord struct {
	ID         string       `json:"id"`
	Project    string       `json:"project"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`
	Status     string       `json:"status"`
	Strict     bool         `json:"strict"`
	Stats      linker.Stats `json:"stats"`
}

// ProjectRecord holds the PROJECT block, when there is one.
type ProjectRecord struct {
	Name        string            `json:"name,omitempty"`
	Template    string            `json:"template,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Description string            `json:"description,omitempty"`
}

// Position is a flattened location.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// FieldRecord is one field occurrence.
type FieldRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SourceRecord is one linked SOURCE.
type SourceRecord struct {
	Key       string            `json:"key"`
	Bibref    string            `json:"bibref"`
	Citation  string            `json:"citation,omitempty"`
	EntryType string            `json:"entry_type,omitempty"`
	Entry     map[string]string `json:"entry,omitempty"`
	Fields    []FieldRecord     `json:"fields,omitempty"`
	Items     int               `json:"items"`
	Position  Position          `json:"position"`
}

// ItemRecord is one ITEM, numbered in project order.
type ItemRecord struct {
	Seq       int           `json:"seq"`
	SourceKey string        `json:"source_key"`
	Bibref    string        `json:"bibref"`
	Nested    bool          `json:"nested"`
	Quote     string        `json:"quote,omitempty"`
	Codes     []string      `json:"codes,omitempty"`
	Memos     []string      `json:"memos,omitempty"`
	Chains    []string      `json:"chains,omitempty"`
	Fields    []FieldRecord `json:"fields,omitempty"`
	Position  Position      `json:"position"`
}

// CodeRecord is one row of the code frequency table.
type CodeRecord struct {
	Code    string `json:"code"`
	Count   int    `json:"count"`
	Items   int    `json:"items"`
	Defined bool   `json:"defined"`
}

// RelationRecord is one chain triple.
type RelationRecord struct {
	Seq       int      `json:"seq"`
	From      string   `json:"from"`
	Relation  string   `json:"relation"`
	To        string   `json:"to"`
	Field     string   `json:"field"`
	Bibref    string   `json:"bibref"`
	Qualified bool     `json:"qualified"`
	Position  Position `json:"position"`
}

// ConceptRecord is one ontology concept.
type ConceptRecord struct {
	Concept     string        `json:"concept"`
	Description string        `json:"description,omitempty"`
	Ancestors   []string      `json:"ancestors,omitempty"`
	Fields      []FieldRecord `json:"fields,omitempty"`
	Uses        int           `json:"uses"`
	Position    Position      `json:"position"`
}

// TopicRecord is one node of the topic hierarchy.
type TopicRecord struct {
	Name     string   `json:"name"`
	Concept  bool     `json:"concept"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
}

// DiagnosticRecord is one diagnostic.
type DiagnosticRecord struct {
	Seq        int      `json:"seq"`
	Severity   string   `json:"severity"`
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Position   Position `json:"position"`
}

// NewSnapshot flattens a compilation result. A result without a linked
// project yields a snapshot with only the run and its diagnostics.
func NewSnapshot(res *compiler.Result) *Snapshot {
	status := StatusSuccess
	if res.Failed() {
		status = StatusFailed
	}
	s := &Snapshot{
		Run: RunRecord{
			ID:         res.ID.String(),
			Project:    res.Name,
			StartedAt:  res.Started.UTC(),
			DurationMS: res.Duration.Milliseconds(),
			Status:     status,
			Strict:     res.Strict,
			Stats:      res.Stats,
		},
	}

	if res.Diagnostics != nil {
		for i, d := range res.Diagnostics.Diagnostics {
			s.Diagnostics = append(s.Diagnostics, DiagnosticRecord{
				Seq:        i + 1,
				Severity:   string(d.Severity),
				Kind:       string(d.Kind),
				Message:    d.Message,
				Suggestion: d.Suggestion,
				Position:   position(d.Location),
			})
		}
	}

	lp := res.Project
	if lp == nil {
		return s
	}

	if p := lp.Project; p != nil {
		s.Project = ProjectRecord{
			Name:        p.Name,
			Template:    p.TemplatePath,
			Description: p.Description,
		}
		if len(p.Metadata) > 0 {
			s.Project.Metadata = make(map[string]string, len(p.Metadata))
			for _, m := range p.Metadata {
				s.Project.Metadata[m.Key] = m.Value
			}
		}
	}

	for _, ls := range lp.Sources {
		rec := SourceRecord{
			Key:      ls.Key,
			Bibref:   ls.Source.Bibref,
			Fields:   fields(ls.Source.Fields),
			Items:    len(ls.Items),
			Position: position(ls.Source.Location),
		}
		if ls.Entry != nil {
			rec.Citation = bib.Citation(ls.Entry)
			rec.EntryType = ls.Entry.Type
			rec.Entry = ls.Entry.Fields
		}
		s.Sources = append(s.Sources, rec)
	}

	for i, item := range lp.Items() {
		rec := ItemRecord{
			Seq:       i + 1,
			SourceKey: bib.NormalizeRef(item.Bibref),
			Bibref:    item.Bibref,
			Nested:    item.Nested,
			Quote:     item.Quote,
			Memos:     item.Memos,
			Fields:    fields(item.Fields),
			Position:  position(item.Location),
		}
		for _, c := range item.Codes {
			rec.Codes = append(rec.Codes, ast.NormalizeCode(c.Text))
		}
		for _, c := range item.Chains {
			rec.Chains = append(rec.Chains, renderChain(c))
		}
		s.Items = append(s.Items, rec)
	}

	uses := make(map[*ast.OntologyNode]int)
	if lp.Codes != nil {
		for _, u := range lp.Codes.Entries() {
			s.Codes = append(s.Codes, CodeRecord{
				Code:    u.Code,
				Count:   u.Count,
				Items:   len(u.Items),
				Defined: u.Concept != nil,
			})
			if u.Concept != nil {
				uses[u.Concept] += u.Count
			}
		}
	}

	if lp.Relations != nil {
		for i, r := range lp.Relations.All() {
			s.Relations = append(s.Relations, RelationRecord{
				Seq:       i + 1,
				From:      r.From,
				Relation:  r.Relation,
				To:        r.To,
				Field:     r.Field,
				Bibref:    r.Bibref,
				Qualified: r.Qualified,
				Position:  position(r.Location),
			})
		}
	}

	if lp.Ontology != nil {
		for _, c := range lp.Ontology.Concepts() {
			rec := ConceptRecord{
				Concept:     c.Concept,
				Description: c.Description,
				Fields:      fields(c.Fields),
				Uses:        uses[c],
				Position:    position(c.Location),
			}
			if lp.Topics != nil {
				rec.Ancestors = lp.Topics.Ancestors(c.Concept)
			}
			s.Ontology = append(s.Ontology, rec)
		}
	}

	if lp.Topics != nil {
		for _, n := range lp.Topics.Nodes() {
			rec := TopicRecord{Name: n.Name, Concept: n.Concept != nil}
			for _, p := range n.Parents {
				rec.Parents = append(rec.Parents, p.Name)
			}
			for _, c := range n.Children {
				rec.Children = append(rec.Children, c.Name)
			}
			s.Topics = append(s.Topics, rec)
		}
	}

	return s
}

func position(loc ast.Location) Position {
	return Position{File: loc.File, Line: loc.Line, Column: loc.Column}
}

func fields(fs ast.Fields) []FieldRecord {
	var out []FieldRecord
	for _, f := range fs {
		out = append(out, FieldRecord{Name: f.Name, Value: f.Text()})
	}
	return out
}

func renderChain(c *ast.ChainNode) string {
	parts := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = e.Text
	}
	return strings.Join(parts, " -> ")
}
