package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
	"synesis-hq/synesis/pkg/syn/template"
)

const studyTemplate = `TEMPLATE study
SOURCE FIELDS
    REQUIRED date
    OPTIONAL rating
    FORBIDDEN secret
END SOURCE FIELDS
ITEM FIELDS
    REQUIRED quote
    REQUIRED BUNDLE note, chain
    OPTIONAL code, level, kind, sector
END ITEM FIELDS
FIELD date TYPE DATE
END FIELD
FIELD rating TYPE SCALE
    FORMAT [1..5]
END FIELD
FIELD secret TYPE TEXT
END FIELD
FIELD quote TYPE QUOTATION
END FIELD
FIELD note TYPE MEMO
END FIELD
FIELD chain TYPE CHAIN
    ARITY >= 2
    RELATIONS
        INFLUENCES: one concept shapes another
        ENABLES: one concept makes another possible
    END RELATIONS
END FIELD
FIELD code TYPE CODE
END FIELD
FIELD level TYPE ORDERED
    VALUES
        [1] low: Low
        [2] high: High
    END VALUES
END FIELD
FIELD kind TYPE ENUMERATED
    VALUES
        survey: Survey
        interview: Interview
    END VALUES
END FIELD
FIELD sector TYPE ENUMERATED
END FIELD
END TEMPLATE
`

// vocab is a Vocabulary over a fixed set of concept names.
type vocab map[string]string

func newVocab(names ...string) vocab {
	v := make(vocab)
	for _, n := range names {
		v[ast.ConceptKey(n)] = n
	}
	return v
}

func (v vocab) Len() int { return len(v) }

func (v vocab) HasConcept(name string) bool {
	_, ok := v[ast.ConceptKey(name)]
	return ok
}

func (v vocab) ConceptNames() []string {
	names := make([]string, 0, len(v))
	for _, n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func loadModel(t *testing.T) *template.Model {
	t.Helper()
	model, diags, err := template.Load(parser.NewParser(), []byte(studyTemplate), "study.synt")
	require.NoError(t, err)
	require.Equal(t, 0, diags.Count(), diags.Error())
	return model
}

func parseDoc(t *testing.T, model *template.Model, src string) *ast.Document {
	t.Helper()
	doc, diags, err := parser.NewParser().ParseDocument([]byte(src), "data.syn", model)
	require.NoError(t, err)
	require.Equal(t, 0, diags.Count(), diags.Error())
	return doc
}

func validate(t *testing.T, v *Validator, docs ...*ast.Document) *errors.DiagnosticList {
	t.Helper()
	diags, err := v.Validate(context.Background(), docs)
	require.NoError(t, err)
	return diags
}

// item renders a top-level item with a valid quote, note and chain plus
// the extra field lines.
func item(ref string, extra ...string) string {
	var sb strings.Builder
	sb.WriteString("ITEM @" + ref + "\n")
	sb.WriteString("    quote: a passage\n")
	sb.WriteString("    note: a memo\n")
	sb.WriteString("    chain: A -> INFLUENCES -> B -> ENABLES -> C\n")
	for _, line := range extra {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("END ITEM\n")
	return sb.String()
}

func kinds(diags *errors.DiagnosticList) []errors.Kind {
	out := make([]errors.Kind, 0, diags.Count())
	for _, d := range diags.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

func TestValidate_ValidItem(t *testing.T) {
	model := loadModel(t)
	doc := parseDoc(t, model, item("smith2024", "code: Trust, Adoption", "level: 2"))

	diags := validate(t, NewValidator(model), doc)
	assert.Equal(t, 0, diags.Count(), diags.Error())
}

func TestValidate_UnbalancedBundle(t *testing.T) {
	model := loadModel(t)
	doc := parseDoc(t, model, item("smith2024", "note: a second memo"))

	diags := validate(t, NewValidator(model), doc)
	require.Equal(t, []errors.Kind{errors.KindUnbalancedBundle}, kinds(diags), diags.Error())

	d := diags.Diagnostics[0]
	assert.Contains(t, d.Message, "note=2, chain=1")
	assert.Equal(t, ast.Location{File: "data.syn", Line: 1, Column: 1}, d.Location)
	assert.True(t, d.IsError())
}

func TestValidate_BundleMemberCountsPerBundle(t *testing.T) {
	model := loadModel(t)
	src := `ITEM @smith2024
    quote: a passage
    note: one
    note: two
    note: three
    chain: A -> INFLUENCES -> B -> ENABLES -> C
END ITEM
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Len(t, diags.ByKind(errors.KindUnbalancedBundle), 1)
	assert.Contains(t, diags.Diagnostics[0].Message, "note=3, chain=1")
}

func TestValidate_RequiredBundleMissing(t *testing.T) {
	model := loadModel(t)
	src := `ITEM @smith2024
    quote: a passage
END ITEM
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Equal(t, []errors.Kind{errors.KindMissingRequiredField}, kinds(diags), diags.Error())
	assert.Contains(t, diags.Diagnostics[0].Message, "required bundle (note, chain)")
}

func TestValidate_ForbiddenBundle(t *testing.T) {
	src := `TEMPLATE t
ITEM FIELDS
    REQUIRED quote
    FORBIDDEN BUNDLE note, code
END ITEM FIELDS
FIELD quote TYPE QUOTATION
END FIELD
FIELD note TYPE MEMO
END FIELD
FIELD code TYPE CODE
END FIELD
END TEMPLATE
`
	model, tdiags, err := template.Load(parser.NewParser(), []byte(src), "t.synt")
	require.NoError(t, err)
	require.True(t, tdiags.HasKind(errors.KindTemplateError))

	doc := parseDoc(t, model, `ITEM @smith2024
    quote: a passage
    note: one
    note: two
    code: Trust
END ITEM
`)
	diags := validate(t, NewValidator(model), doc)
	require.Equal(t, []errors.Kind{
		errors.KindForbiddenFieldPresent,
		errors.KindForbiddenFieldPresent,
		errors.KindForbiddenFieldPresent,
	}, kinds(diags), diags.Error())
	assert.Contains(t, diags.Diagnostics[0].Message, "field 'note' is FORBIDDEN in ITEM")
	assert.Contains(t, diags.Diagnostics[2].Message, "field 'code' is FORBIDDEN in ITEM")

	clean := parseDoc(t, model, "ITEM @smith2024\n    quote: a passage\nEND ITEM\n")
	assert.Equal(t, 0, validate(t, NewValidator(model), clean).Count())
}

func TestValidate_Chains(t *testing.T) {
	tests := []struct {
		name    string
		chain   string
		want    []errors.Kind
		column  int
		message string
	}{
		{
			name:    "arity violated by one triple",
			chain:   "A -> INFLUENCES -> B",
			want:    []errors.Kind{errors.KindChainArityViolation},
			column:  12,
			message: "chain 'chain' has 1 triple(s), field requires ARITY >= 2",
		},
		{
			name:    "unknown relation only",
			chain:   "A -> CAUSES -> B -> ENABLES -> C",
			want:    []errors.Kind{errors.KindUnknownRelation},
			column:  17,
			message: "relation 'CAUSES' is not declared for field 'chain'",
		},
		{
			name:    "relations are case-sensitive",
			chain:   "A -> influences -> B -> ENABLES -> C",
			want:    []errors.Kind{errors.KindUnknownRelation},
			column:  17,
			message: "relation 'influences' is not declared for field 'chain'",
		},
		{
			name:   "even length is malformed",
			chain:  "A -> INFLUENCES",
			want:   []errors.Kind{errors.KindMalformedChain},
			column: 12,
		},
	}

	model := loadModel(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "ITEM @smith2024\n    quote: q\n    note: n\n    chain: " + tt.chain + "\nEND ITEM\n"
			diags := validate(t, NewValidator(model), parseDoc(t, model, src))
			require.Equal(t, tt.want, kinds(diags), diags.Error())

			d := diags.Diagnostics[0]
			assert.Equal(t, 4, d.Location.Line)
			assert.Equal(t, tt.column, d.Location.Column)
			if tt.message != "" {
				assert.Equal(t, tt.message, d.Message)
			}
		})
	}
}

func TestValidate_UnknownRelationSuggestion(t *testing.T) {
	model := loadModel(t)
	src := "ITEM @smith2024\n    quote: q\n    note: n\n    chain: A -> ENABLE -> B -> INFLUENCES -> C\nEND ITEM\n"

	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Len(t, diags.ByKind(errors.KindUnknownRelation), 1)
	assert.Equal(t, "Did you mean 'ENABLES'?", diags.Diagnostics[0].Suggestion)
}

func TestValidate_SourceCardinality(t *testing.T) {
	model := loadModel(t)
	src := `SOURCE @smith2024
    secret: hidden
    rating: 7
    ITEM
        quote: q
        note: n
        chain: A -> INFLUENCES -> B -> ENABLES -> C
    END ITEM
END SOURCE
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Equal(t, []errors.Kind{
		errors.KindMissingRequiredField,
		errors.KindForbiddenFieldPresent,
		errors.KindScaleOutOfRange,
	}, kinds(diags), diags.Error())

	assert.Equal(t, "SOURCE is missing required field 'date'", diags.Diagnostics[0].Message)
	assert.Equal(t, "Add 'date: <value>' to the block", diags.Diagnostics[0].Suggestion)
	assert.Equal(t, 2, diags.Diagnostics[1].Location.Line)
	assert.Equal(t, "Use a value between 1 and 5", diags.Diagnostics[2].Suggestion)
}

func TestValidate_ScaleNotNumber(t *testing.T) {
	model := loadModel(t)
	src := `SOURCE @smith2024
    date: 2024
    rating: high
    ITEM
        quote: q
        note: n
        chain: A -> INFLUENCES -> B -> ENABLES -> C
    END ITEM
END SOURCE
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Equal(t, []errors.Kind{errors.KindInvalidFieldType}, kinds(diags), diags.Error())
	assert.Equal(t, ast.Location{File: "data.syn", Line: 3, Column: 13}, diags.Diagnostics[0].Location)
}

func TestValidate_UnknownField(t *testing.T) {
	model := loadModel(t)
	src := `ITEM @smith2024
    qoute: a passage
    note: n
    chain: A -> INFLUENCES -> B -> ENABLES -> C
END ITEM
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Equal(t, []errors.Kind{errors.KindMissingRequiredField, errors.KindUnknownField}, kinds(diags), diags.Error())

	unknown := diags.ByKind(errors.KindUnknownField)[0]
	assert.Equal(t, "field 'qoute' is not declared for ITEM", unknown.Message)
	assert.Equal(t, "Did you mean 'quote'?", unknown.Suggestion)
}

func TestValidate_OrderedValues(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"1", true},
		{"2", true},
		{"high", true},
		{"HIGH", true},
		{"3", false},
		{"medium", false},
	}

	model := loadModel(t)
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			doc := parseDoc(t, model, item("smith2024", "level: "+tt.value))
			diags := validate(t, NewValidator(model), doc)
			if tt.valid {
				assert.Equal(t, 0, diags.Count(), diags.Error())
				return
			}
			require.Equal(t, []errors.Kind{errors.KindInvalidOrderedValue}, kinds(diags), diags.Error())
			assert.Equal(t, "Use one of: [1] low, [2] high", diags.Diagnostics[0].Suggestion)
		})
	}
}

func TestValidate_EnumeratedValues(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		want       []errors.Kind
		suggestion string
	}{
		{name: "declared label", line: "kind: survey"},
		{
			name:       "labels are exact",
			line:       "kind: Survey",
			want:       []errors.Kind{errors.KindInvalidEnumeratedValue},
			suggestion: "Did you mean 'survey'?",
		},
		{
			name:       "far from every label",
			line:       "kind: ethnography",
			want:       []errors.Kind{errors.KindInvalidEnumeratedValue},
			suggestion: "Use one of: survey, interview",
		},
		{name: "ontology concept", line: "sector: energy"},
		{
			name:       "not an ontology concept",
			line:       "sector: Enrgy Sector",
			want:       []errors.Kind{errors.KindInvalidEnumeratedValue},
			suggestion: "Did you mean 'Energy Sector'?",
		},
	}

	model := loadModel(t)
	v := NewValidator(model).WithVocabulary(newVocab("Energy", "Energy Sector", "A", "B", "C"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := validate(t, v, parseDoc(t, model, item("smith2024", tt.line)))
			if tt.want == nil {
				assert.Equal(t, 0, diags.Count(), diags.Error())
				return
			}
			require.Equal(t, tt.want, kinds(diags), diags.Error())
			assert.Equal(t, tt.suggestion, diags.Diagnostics[0].Suggestion)
		})
	}
}

func TestValidate_UndefinedCode(t *testing.T) {
	model := loadModel(t)
	doc := parseDoc(t, model, item("smith2024", "code: Trust,  energy  policy"))

	t.Run("empty ontology skips lookup", func(t *testing.T) {
		diags := validate(t, NewValidator(model), doc)
		assert.Equal(t, 0, diags.Count(), diags.Error())
	})

	t.Run("missing codes warn", func(t *testing.T) {
		v := NewValidator(model).WithVocabulary(newVocab("Energy Policy", "A", "B", "C"))
		diags := validate(t, v, doc)
		require.Equal(t, []errors.Kind{errors.KindUndefinedCode}, kinds(diags), diags.Error())

		d := diags.Diagnostics[0]
		assert.Equal(t, errors.SeverityWarning, d.Severity)
		assert.Equal(t, "code 'Trust' is not defined in the ontology", d.Message)
		assert.False(t, diags.HasErrors())
	})
}

func TestValidate_Bibrefs(t *testing.T) {
	refs, bibDiags, err := bib.Parse([]byte(`@article{known2024, title = {Known}}
@book{Smith2024, title = {Other}}
`), "refs.bib")
	require.NoError(t, err)
	require.Equal(t, 0, bibDiags.Count())

	tests := []struct {
		name       string
		ref        string
		message    string
		suggestion string
	}{
		{name: "exact", ref: "known2024"},
		{name: "case differs", ref: "smith2024"},
		{name: "upper case", ref: "KNOWN2024"},
		{
			name:       "near miss",
			ref:        "unknown2024",
			message:    "unresolved bibliographic reference '@unknown2024'",
			suggestion: "Did you mean '@known2024'?",
		},
		{
			name:    "no match",
			ref:     "zzzz1999",
			message: "unresolved bibliographic reference '@zzzz1999': no bibliography match",
		},
	}

	model := loadModel(t)
	v := NewValidator(model).WithBibliography(refs)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := validate(t, v, parseDoc(t, model, item(tt.ref)))
			if tt.message == "" {
				assert.Equal(t, 0, diags.Count(), diags.Error())
				return
			}
			require.Equal(t, []errors.Kind{errors.KindUnresolvedBibref}, kinds(diags), diags.Error())
			d := diags.Diagnostics[0]
			assert.Equal(t, tt.message, d.Message)
			assert.Equal(t, tt.suggestion, d.Suggestion)
			assert.Equal(t, ast.Location{File: "data.syn", Line: 1, Column: 6}, d.Location)
		})
	}
}

func TestValidate_EmptyBibliography(t *testing.T) {
	model := loadModel(t)
	doc := parseDoc(t, model, item("ghost2024"))

	diags := validate(t, NewValidator(model).WithBibliography(bib.New()), doc)
	require.Equal(t, []errors.Kind{errors.KindUnresolvedBibref}, kinds(diags), diags.Error())
	assert.Equal(t, "unresolved bibliographic reference '@ghost2024': no bibliography match", diags.Diagnostics[0].Message)
	assert.Empty(t, diags.Diagnostics[0].Suggestion)

	diags = validate(t, NewValidator(model), doc)
	assert.Equal(t, 0, diags.Count(), "a nil bibliography disables reference checks")
}

func TestValidate_SuggestionDistance(t *testing.T) {
	refs, _, err := bib.Parse([]byte(`@article{known2024, title = {Known}}`), "refs.bib")
	require.NoError(t, err)

	model := loadModel(t)
	v := NewValidator(model).WithBibliography(refs).WithSuggestionDistance(1)
	diags := validate(t, v, parseDoc(t, model, item("unknown2024")))
	require.Len(t, diags.ByKind(errors.KindUnresolvedBibref), 1)
	assert.Empty(t, diags.Diagnostics[0].Suggestion)
}

func TestValidate_NestedBibrefMismatch(t *testing.T) {
	model := loadModel(t)
	src := `SOURCE @smith2024
    date: 2024
    ITEM @SMITH2024
        quote: q
        note: n
        chain: A -> INFLUENCES -> B -> ENABLES -> C
    END ITEM
    ITEM @jones2020
        quote: q
        note: n
        chain: A -> INFLUENCES -> B -> ENABLES -> C
    END ITEM
END SOURCE
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	require.Equal(t, []errors.Kind{errors.KindNestedBibrefMismatch}, kinds(diags), diags.Error())
	assert.Equal(t, 8, diags.Diagnostics[0].Location.Line)
}

func TestValidate_OntologyWithoutDeclaredFields(t *testing.T) {
	model := loadModel(t)
	src := `ONTOLOGY Energy Policy
    description: public measures on energy
    topic: Governance
    is_a: Policy -> Institution
END ONTOLOGY
`
	diags := validate(t, NewValidator(model), parseDoc(t, model, src))
	assert.Equal(t, 0, diags.Count(), diags.Error())
}

func TestValidate_DeterministicAcrossWorkers(t *testing.T) {
	model := loadModel(t)

	var docs []*ast.Document
	for i := 0; i < 20; i++ {
		var sb strings.Builder
		for j := 0; j < 5; j++ {
			sb.WriteString(item(fmt.Sprintf("ref%d", j), "level: medium", "note: extra"))
		}
		doc, diags, err := parser.NewParser().ParseDocument([]byte(sb.String()), fmt.Sprintf("doc%02d.syn", i), model)
		require.NoError(t, err)
		require.Equal(t, 0, diags.Count())
		docs = append(docs, doc)
	}

	serial := validate(t, NewValidator(model).WithWorkers(1), docs...)
	parallel := validate(t, NewValidator(model).WithWorkers(8), docs...)

	require.Equal(t, 200, serial.Count())
	assert.Equal(t, serial.Diagnostics, parallel.Diagnostics)
	assert.Equal(t, "doc00.syn", serial.Diagnostics[0].Location.File)
	assert.Equal(t, "doc19.syn", serial.Diagnostics[199].Location.File)
}

func TestValidate_Canceled(t *testing.T) {
	model := loadModel(t)
	doc := parseDoc(t, model, item("smith2024"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	diags, err := NewValidator(model).Validate(ctx, []*ast.Document{doc})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, diags)
}
