package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
)

func parseDoc(t *testing.T, path, src string) *ast.Document {
	t.Helper()
	doc, diags, err := parser.NewParser().ParseDocument([]byte(src), path, nil)
	require.NoError(t, err)
	require.Equal(t, 0, diags.Count(), diags.Error())
	return doc
}

func link(t *testing.T, docs ...*ast.Document) (*LinkedProject, *errors.DiagnosticList) {
	t.Helper()
	lp, diags := NewLinker(nil).Link(nil, docs)
	require.NotNil(t, lp)
	return lp, diags
}

const sourcesDoc = `SOURCE @smith2024
    date: 2024
    ITEM
        quote: nested passage
        code: Trust
    END ITEM
END SOURCE

SOURCE @jones2020
    date: 2020
END SOURCE
`

const itemsDoc = `ITEM @Smith2024
    quote: top-level passage
    code: Trust, Energy  Policy
    chain: Trust -> INFLUENCES -> Adoption -> ENABLES -> Policy
END ITEM

ITEM @nobody1999
    quote: orphan
END ITEM
`

func TestLink_SourcesAndItems(t *testing.T) {
	lp, diags := link(t, parseDoc(t, "sources.syn", sourcesDoc), parseDoc(t, "items.syn", itemsDoc))

	require.Len(t, lp.Sources, 2)
	smith, ok := lp.Source("@SMITH2024")
	require.True(t, ok)
	require.Len(t, smith.Items, 2)
	assert.True(t, smith.Items[0].Nested)
	assert.Equal(t, "top-level passage", smith.Items[1].Quote)

	orphans := diags.ByKind(errors.KindOrphanItem)
	require.Len(t, orphans, 1)
	assert.Equal(t, "ITEM '@nobody1999' has no matching SOURCE", orphans[0].Message)
	assert.Equal(t, ast.Location{File: "items.syn", Line: 7, Column: 1}, orphans[0].Location)

	empty := diags.ByKind(errors.KindSourceWithoutItems)
	require.Len(t, empty, 1)
	assert.Equal(t, errors.SeverityWarning, empty[0].Severity)
	assert.Equal(t, 9, empty[0].Location.Line)

	assert.Len(t, lp.Items(), 3)
}

func TestLink_DuplicateSource(t *testing.T) {
	doc := parseDoc(t, "dup.syn", `SOURCE @a
    date: 1
    ITEM
        quote: q
    END ITEM
END SOURCE
SOURCE @A
    date: 2
END SOURCE
`)
	lp, diags := link(t, doc)
	require.Len(t, lp.Sources, 1)
	require.Equal(t, []errors.Kind{errors.KindDuplicateSource}, kindsOf(diags), diags.Error())
	assert.Equal(t, 7, diags.Diagnostics[0].Location.Line)
}

func TestLink_BibliographyEntries(t *testing.T) {
	refs, _, err := bib.Parse([]byte(`@article{Smith2024, author = {Smith, J.}, year = {2024}}`), "refs.bib")
	require.NoError(t, err)

	lp, _ := NewLinker(nil).WithBibliography(refs).Link(nil, []*ast.Document{parseDoc(t, "sources.syn", sourcesDoc)})
	smith, ok := lp.Source("smith2024")
	require.True(t, ok)
	require.NotNil(t, smith.Entry)
	assert.Equal(t, "2024", smith.Entry.Fields["year"])

	jones, _ := lp.Source("jones2020")
	assert.Nil(t, jones.Entry)
}

func TestLink_CodeTable(t *testing.T) {
	ontology := parseDoc(t, "concepts.syno", `ONTOLOGY Trust
    description: confidence in others
END ONTOLOGY
`)
	lp, _ := link(t, parseDoc(t, "sources.syn", sourcesDoc), parseDoc(t, "items.syn", itemsDoc), ontology)

	require.Equal(t, 2, lp.Codes.Len())
	trust, ok := lp.Codes.Lookup("Trust")
	require.True(t, ok)
	assert.Equal(t, 2, trust.Count)
	assert.Equal(t, []ast.Location{
		{File: "sources.syn", Line: 5, Column: 15},
		{File: "items.syn", Line: 3, Column: 11},
	}, trust.Locations)
	assert.Len(t, trust.Items, 2)
	require.NotNil(t, trust.Concept)
	assert.Equal(t, "confidence in others", trust.Concept.Description)

	policy, ok := lp.Codes.Lookup("Energy Policy")
	require.True(t, ok)
	assert.Equal(t, "Energy Policy", policy.Code)
	assert.Nil(t, policy.Concept)

	_, ok = lp.Codes.Lookup("trust")
	assert.False(t, ok)
	assert.Equal(t, 3, lp.Codes.Total())
}

func TestLink_RelationIndex(t *testing.T) {
	lp, _ := link(t, parseDoc(t, "sources.syn", sourcesDoc), parseDoc(t, "items.syn", itemsDoc))

	all := lp.Relations.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Trust", all[0].From)
	assert.Equal(t, "INFLUENCES", all[0].Relation)
	assert.Equal(t, "Adoption", all[0].To)
	assert.Equal(t, all[0].To, all[1].From)
	assert.Equal(t, "Smith2024", all[0].Bibref)
	assert.Equal(t, ast.Location{File: "items.syn", Line: 4, Column: 12}, all[0].Location)
	assert.Equal(t, ast.Location{File: "items.syn", Line: 1, Column: 1}, all[0].ItemLocation)

	assert.Len(t, lp.Relations.From("adoption"), 1)
	assert.Len(t, lp.Relations.To("Policy"), 1)
	assert.Equal(t, 2, lp.Relations.Distinct())
}

func TestLink_DuplicateConcept(t *testing.T) {
	doc := parseDoc(t, "concepts.syno", `ONTOLOGY Energy Policy
    description: first
END ONTOLOGY
ONTOLOGY energy   policy
    description: second
END ONTOLOGY
`)
	lp, diags := link(t, doc)
	require.Equal(t, []errors.Kind{errors.KindDuplicateOntologyConcept}, kindsOf(diags), diags.Error())
	assert.Equal(t, 4, diags.Diagnostics[0].Location.Line)

	require.Equal(t, 1, lp.Ontology.Len())
	node, ok := lp.Ontology.Lookup("ENERGY POLICY")
	require.True(t, ok)
	assert.Equal(t, "first", node.Description)
}

func TestLink_TopicHierarchy(t *testing.T) {
	doc := parseDoc(t, "concepts.syno", `ONTOLOGY Solar
    topic: Energy
END ONTOLOGY
ONTOLOGY Wind
    topic: Energy
END ONTOLOGY
ONTOLOGY Energy
    topic: Policy
END ONTOLOGY
ONTOLOGY Subsidy
    is_a: Instrument -> Policy
END ONTOLOGY
`)
	lp, diags := link(t, doc)
	require.Equal(t, 0, diags.Count(), diags.Error())

	roots := lp.Topics.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "Policy", roots[0].Name)
	assert.Nil(t, roots[0].Concept)

	var children []string
	for _, c := range roots[0].Children {
		children = append(children, c.Name)
	}
	assert.Equal(t, []string{"Energy", "Instrument"}, children)

	assert.Equal(t, []string{"Energy", "Policy"}, lp.Topics.Ancestors("solar"))
	assert.Equal(t, []string{"Instrument", "Policy"}, lp.Topics.Ancestors("Subsidy"))
}

func TestLink_TopicOrderedSiblings(t *testing.T) {
	doc := parseDoc(t, "concepts.syno", `ONTOLOGY Late
    topic: Root
END ONTOLOGY
ONTOLOGY Second
    topic: Root
    level: 2
END ONTOLOGY
ONTOLOGY First
    topic: Root
    level: 1
END ONTOLOGY
`)
	for _, ont := range doc.Ontologies {
		for _, f := range ont.Fields {
			if f.Name == "level" {
				f.Type = ast.FieldTypeOrdered
			}
		}
	}

	lp, _ := link(t, doc)
	root, ok := lp.Topics.Lookup("root")
	require.True(t, ok)

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"First", "Second", "Late"}, names)
}

func TestLink_TopicCycle(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{
			name: "direct",
			src: `ONTOLOGY A
    topic: A
END ONTOLOGY
`,
			message: "'A' cannot be placed under 'A': A -> A",
		},
		{
			name: "transitive",
			src: `ONTOLOGY A
    topic: B
END ONTOLOGY
ONTOLOGY B
    topic: C
END ONTOLOGY
ONTOLOGY C
    parent: A
END ONTOLOGY
`,
			message: "'C' cannot be placed under 'A': C -> A -> B -> C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lp, diags := link(t, parseDoc(t, "cycle.syno", tt.src))
			cycles := diags.ByKind(errors.KindTopicCycle)
			require.Len(t, cycles, 1, diags.Error())
			assert.Equal(t, tt.message, cycles[0].Message)

			for _, n := range lp.Topics.Nodes() {
				assert.NotContains(t, lp.Topics.Ancestors(n.Name), n.Name)
			}
		})
	}
}

func TestLink_Stats(t *testing.T) {
	ontology := parseDoc(t, "concepts.syno", `ONTOLOGY Trust
    description: confidence
END ONTOLOGY
`)
	lp, diags := link(t, parseDoc(t, "sources.syn", sourcesDoc), parseDoc(t, "items.syn", itemsDoc), ontology)
	lp.Stats.CountDiagnostics(diags)

	assert.Equal(t, Stats{
		Sources:  2,
		Items:    3,
		Concepts: 1,
		Codes:    2,
		Chains:   1,
		Triples:  2,
		Errors:   1,
		Warnings: 1,
	}, lp.Stats)
}

func kindsOf(diags *errors.DiagnosticList) []errors.Kind {
	var out []errors.Kind
	for _, d := range diags.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}
