package compiler

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
)

const studyTemplate = `TEMPLATE study
SOURCE FIELDS
    REQUIRED date
END SOURCE FIELDS
ITEM FIELDS
    REQUIRED quote
    OPTIONAL code
    OPTIONAL BUNDLE note, chain
END ITEM FIELDS
ONTOLOGY FIELDS
    OPTIONAL description, topic
END ONTOLOGY FIELDS
FIELD date TYPE DATE
END FIELD
FIELD quote TYPE QUOTATION
END FIELD
FIELD code TYPE CODE
END FIELD
FIELD note TYPE MEMO
END FIELD
FIELD chain TYPE CHAIN
    RELATIONS
        INFLUENCES: shapes
        ENABLES: makes possible
    END RELATIONS
END FIELD
FIELD description TYPE TEXT
END FIELD
FIELD topic TYPE TOPIC
END FIELD
END TEMPLATE
`

const studyAnnotations = `SOURCE @smith2024
    date: 2024-03-01
    ITEM
        quote: Trust grows with use.
        code: Trust
        note: observed in interviews
        chain: Trust -> INFLUENCES -> Adoption
    END ITEM
END SOURCE
`

const studyOntology = `ONTOLOGY Trust
    description: confidence in others
    topic: Attitudes
END ONTOLOGY

ONTOLOGY Adoption
    description: uptake of a practice
    topic: Behaviour
END ONTOLOGY
`

const studyBibliography = `@article{Smith2024, author = {Smith, J.}, year = {2024}, title = {Trust}}`

func studyInputs() *Inputs {
	return &Inputs{
		Template:       Document{Path: "study.synt", Data: []byte(studyTemplate)},
		Bibliographies: []Document{{Path: "refs.bib", Data: []byte(studyBibliography)}},
		Annotations:    []Document{{Path: "data/a.syn", Data: []byte(studyAnnotations)}},
		Ontologies:     []Document{{Path: "concepts.syno", Data: []byte(studyOntology)}},
	}
}

func compile(t *testing.T, opts Options, in *Inputs) *Result {
	t.Helper()
	res, err := New(opts).Compile(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestCompile_ValidProject(t *testing.T) {
	res := compile(t, DefaultOptions(), studyInputs())
	require.Equal(t, 0, res.Diagnostics.Count(), res.Diagnostics.Error())

	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.False(t, res.Failed())
	assert.Positive(t, res.Duration)
	assert.Equal(t, 1, res.Stats.Sources)
	assert.Equal(t, 1, res.Stats.Items)
	assert.Equal(t, 2, res.Stats.Concepts)
	assert.Equal(t, 1, res.Stats.Triples)

	lp, err := res.Output(false)
	require.NoError(t, err)
	src, ok := lp.Source("SMITH2024")
	require.True(t, ok)
	require.NotNil(t, src.Entry)
	assert.Equal(t, "2024", src.Entry.Fields["year"])
	assert.Equal(t, []string{"Attitudes"}, lp.Topics.Ancestors("trust"))

	assert.Contains(t, res.Sources, "data/a.syn")
	assert.Contains(t, res.Sources, "study.synt")
}

func TestCompile_FailureAndForce(t *testing.T) {
	in := studyInputs()
	in.Annotations = append(in.Annotations, Document{Path: "data/b.syn", Data: []byte(`ITEM @nobody1999
    quote: orphan passage
END ITEM
`)})

	res := compile(t, DefaultOptions(), in)
	require.True(t, res.Failed())
	assert.True(t, res.Diagnostics.HasKind(errors.KindOrphanItem))
	assert.True(t, res.Diagnostics.HasKind(errors.KindUnresolvedBibref))

	_, err := res.Output(false)
	require.ErrorIs(t, err, ErrCompilationFailed)

	lp, err := res.Output(true)
	require.NoError(t, err)
	assert.Len(t, lp.Items(), 2)
}

func TestCompile_StrictCountsWarnings(t *testing.T) {
	in := studyInputs()
	in.Annotations[0].Data = []byte(`SOURCE @smith2024
    date: 2024-03-01
    ITEM
        quote: text
        code: Unknown Concept
    END ITEM
END SOURCE
`)

	res := compile(t, DefaultOptions(), in)
	require.Equal(t, []errors.Kind{errors.KindUndefinedCode}, kinds(res.Diagnostics), res.Diagnostics.Error())
	assert.False(t, res.Failed())
	assert.Equal(t, 1, res.Stats.Warnings)

	opts := DefaultOptions()
	opts.Strict = true
	res = compile(t, opts, in)
	assert.True(t, res.Failed())
	_, err := res.Output(false)
	assert.ErrorIs(t, err, ErrCompilationFailed)
}

func TestCompile_DiagnosticsMergedInOrder(t *testing.T) {
	in := studyInputs()
	in.Annotations = []Document{
		{Path: "b.syn", Data: []byte("ITEM @smith2024\n    quote: x\n    mood: calm\nEND ITEM\n")},
		{Path: "a.syn", Data: []byte("SOURCE @smith2024\nEND SOURCE\n")},
	}

	res := compile(t, DefaultOptions(), in)
	require.NotZero(t, res.Diagnostics.Count())

	prev := res.Diagnostics.Diagnostics[0].Location
	for _, d := range res.Diagnostics.Diagnostics[1:] {
		assert.False(t, d.Location.Before(prev), "%s listed after %s", d.Location, prev)
		prev = d.Location
	}
	assert.Equal(t, "a.syn", res.Diagnostics.Diagnostics[0].Location.File)
	assert.True(t, res.Diagnostics.HasKind(errors.KindMissingRequiredField))
	assert.True(t, res.Diagnostics.HasKind(errors.KindUnknownField))
}

func TestCompile_DeterministicAcrossWorkers(t *testing.T) {
	in := studyInputs()
	in.Annotations = nil
	for _, name := range []string{"a.syn", "b.syn", "c.syn", "d.syn", "e.syn"} {
		in.Annotations = append(in.Annotations, Document{Path: name, Data: []byte(`ITEM @missing
    quote: q
    code: Nowhere
    chain: Trust -> CAUSES -> Adoption
END ITEM
`)})
	}

	one := DefaultOptions()
	one.Workers = 1
	many := DefaultOptions()
	many.Workers = 8

	first := compile(t, one, in).Diagnostics.Error()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, compile(t, many, in).Diagnostics.Error())
	}
}

func TestCompile_FatalInput(t *testing.T) {
	in := studyInputs()
	in.Annotations[0].Data = []byte("\xEF\xBB\xBFSOURCE @smith2024\nEND SOURCE\n")

	_, err := New(DefaultOptions()).Compile(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrByteOrderMark)

	var fatal *errors.FatalError
	require.True(t, stderrors.As(err, &fatal))
	assert.Equal(t, "data/a.syn", fatal.Path)
}

func TestCompile_FileTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFileSize = 16

	_, err := New(opts).Compile(context.Background(), studyInputs())
	assert.ErrorIs(t, err, errors.ErrFileTooLarge)
}

func TestCompile_MissingTemplate(t *testing.T) {
	in := studyInputs()
	in.Template = Document{}

	_, err := New(DefaultOptions()).Compile(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingTemplate)
}

func TestCompile_Prebuilt(t *testing.T) {
	p := parser.NewParser()
	model, tmplDiags, err := LoadTemplate(p, Document{Path: "study.synt", Data: []byte(studyTemplate)})
	require.NoError(t, err)
	refs, bibDiags, err := LoadBibliography([]Document{{Path: "refs.bib", Data: []byte(studyBibliography)}})
	require.NoError(t, err)

	in := studyInputs()
	in.Template = Document{}
	in.Bibliographies = nil
	in.Prebuilt = &Artifacts{
		Template:                model,
		TemplateDiagnostics:     tmplDiags,
		Bibliography:            refs,
		BibliographyDiagnostics: bibDiags,
	}

	res := compile(t, DefaultOptions(), in)
	assert.Equal(t, 0, res.Diagnostics.Count(), res.Diagnostics.Error())
	assert.Same(t, model, res.Project.Template)
}

func TestCompile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions()).Compile(ctx, studyInputs())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadBibliography_DuplicatesAcrossFiles(t *testing.T) {
	refs, diags, err := LoadBibliography([]Document{
		{Path: "a.bib", Data: []byte(`@book{Key1, title = {A}}`)},
		{Path: "b.bib", Data: []byte(`@book{key1, title = {B}}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, refs.Len())
	require.Equal(t, []errors.Kind{errors.KindDuplicateBibKey}, kinds(diags))
	assert.Equal(t, "b.bib", diags.Diagnostics[0].Location.File)
}

func TestParseProject(t *testing.T) {
	p := parser.NewParser()

	project, diags, err := ParseProject(p, []byte(`PROJECT study
    TEMPLATE "study.synt"
    INCLUDE ANNOTATIONS "data/*.syn"
END PROJECT
`), "study.synp")
	require.NoError(t, err)
	require.Equal(t, 0, diags.Count(), diags.Error())
	require.NotNil(t, project)
	assert.Equal(t, "study", project.Name)
	assert.Equal(t, "study.synt", project.TemplatePath)

	project, diags, err = ParseProject(p, []byte("ONTOLOGY A\n    description: x\nEND ONTOLOGY\n"), "bad.synp")
	require.NoError(t, err)
	assert.Nil(t, project)
	assert.True(t, diags.HasKind(errors.KindParseError))
}

type fakeRecorder struct {
	mu           sync.Mutex
	compilations map[string]int
	stages       map[string]int
	documents    map[string]int
	diagnostics  int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		compilations: make(map[string]int),
		stages:       make(map[string]int),
		documents:    make(map[string]int),
	}
}

func (f *fakeRecorder) RecordCompilation(project, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compilations[project+"/"+status]++
}

func (f *fakeRecorder) RecordStage(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[stage]++
}

func (f *fakeRecorder) RecordDocument(kind string, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[kind]++
}

func (f *fakeRecorder) RecordDiagnostic(string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diagnostics++
}

func TestCompile_RecordsMetrics(t *testing.T) {
	rec := newFakeRecorder()
	in := studyInputs()
	in.ProjectPath = "projects/study.synp"

	_, err := New(DefaultOptions()).WithMetrics(rec).Compile(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.compilations["study/success"])
	for _, stage := range []string{"parse", "template", "bibliography", "build", "validate", "link"} {
		assert.Equal(t, 1, rec.stages[stage], stage)
	}
	assert.Equal(t, map[string]int{
		"annotations":  1,
		"ontology":     1,
		"template":     1,
		"bibliography": 1,
	}, rec.documents)
	assert.Zero(t, rec.diagnostics)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Compiler.Strict = true
	cfg.Compiler.MaxFileSize = 1024
	cfg.Validation.SuggestionDistance = 2

	opts := OptionsFromConfig(cfg)
	assert.True(t, opts.Strict)
	assert.Positive(t, opts.Workers)
	assert.Equal(t, int64(1024), opts.MaxFileSize)
	assert.Equal(t, 2, opts.SuggestionDistance)
}

func kinds(diags *errors.DiagnosticList) []errors.Kind {
	var out []errors.Kind
	for _, d := range diags.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}
