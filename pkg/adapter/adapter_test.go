package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
)

const (
	testProject = `PROJECT study
    TEMPLATE "study.synt"
    INCLUDE BIBLIOGRAPHY "refs.bib"
    INCLUDE ANNOTATIONS "data/*.syn"
END PROJECT
`
	testTemplate = `TEMPLATE study
ITEM FIELDS
    REQUIRED quote
END ITEM FIELDS
FIELD quote TYPE QUOTATION
END FIELD
END TEMPLATE
`
	testBibliography = "@misc{doe2021, title = {Notes}}\n"
	testAnnotations  = "SOURCE @doe2021\n    ITEM\n        quote: hello\n    END ITEM\nEND SOURCE\n"
)

type fakeRecorder struct {
	mu        sync.Mutex
	hits      map[string]int
	misses    map[string]int
	evictions map[string]int
	sizes     map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		hits:      make(map[string]int),
		misses:    make(map[string]int),
		evictions: make(map[string]int),
		sizes:     make(map[string]int),
	}
}

func (f *fakeRecorder) RecordCacheHit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[name]++
}

func (f *fakeRecorder) RecordCacheMiss(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses[name]++
}

func (f *fakeRecorder) RecordCacheEviction(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evictions[name]++
}

func (f *fakeRecorder) UpdateCacheSize(name string, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes[name] = size
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readDoc(t *testing.T, path string) compiler.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return compiler.Document{Path: path, Data: data}
}

func studyProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "study.synp"), testProject)
	writeFile(t, filepath.Join(root, "study.synt"), testTemplate)
	writeFile(t, filepath.Join(root, "refs.bib"), testBibliography)
	writeFile(t, filepath.Join(root, "data", "a.syn"), testAnnotations)
	return filepath.Join(root, "study.synp")
}

func TestCache_Template(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.synt")
	writeFile(t, path, testTemplate)

	rec := newFakeRecorder()
	cache := NewCache(parser.NewParser()).WithMetrics(rec)

	first, _, err := cache.Template(readDoc(t, path))
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	second, _, err := cache.Template(readDoc(t, path))
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if first != second {
		t.Error("second lookup did not return the cached model")
	}
	if rec.misses[TemplateCache] != 1 || rec.hits[TemplateCache] != 1 {
		t.Errorf("misses = %d, hits = %d, want 1 and 1", rec.misses[TemplateCache], rec.hits[TemplateCache])
	}
	if rec.sizes[TemplateCache] != 1 {
		t.Errorf("size = %d, want 1", rec.sizes[TemplateCache])
	}
}

func TestCache_ChangedFileIsRebuilt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.synt")
	writeFile(t, path, testTemplate)
	cache := NewCache(parser.NewParser())

	first, _, err := cache.Template(readDoc(t, path))
	if err != nil {
		t.Fatal(err)
	}

	changed := testTemplate + "\n"
	writeFile(t, path, changed)
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	second, _, err := cache.Template(readDoc(t, path))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("a changed file was served from the cache")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCache_Invalidate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "study.synt")
	refs := filepath.Join(dir, "refs.bib")
	writeFile(t, tmpl, testTemplate)
	writeFile(t, refs, testBibliography)

	rec := newFakeRecorder()
	cache := NewCache(parser.NewParser()).WithMetrics(rec)
	if _, _, err := cache.Template(readDoc(t, tmpl)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cache.Bibliography([]compiler.Document{readDoc(t, refs)}); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}

	if !cache.Invalidate(tmpl) {
		t.Error("Invalidate(template) = false, want true")
	}
	if cache.Invalidate(tmpl) {
		t.Error("second Invalidate(template) = true, want false")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
	if rec.evictions[TemplateCache] != 1 {
		t.Errorf("template evictions = %d, want 1", rec.evictions[TemplateCache])
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
	if rec.sizes[BibliographyCache] != 0 {
		t.Errorf("bibliography size = %d, want 0", rec.sizes[BibliographyCache])
	}
}

func TestCache_InMemoryDocumentsAreNotCached(t *testing.T) {
	cache := NewCache(parser.NewParser())
	doc := compiler.Document{Path: "<template>", Data: []byte(testTemplate)}

	first, _, err := cache.Template(doc)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := cache.Template(doc)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("in-memory template was cached")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestCache_BibliographyDuplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bib")
	b := filepath.Join(dir, "b.bib")
	writeFile(t, a, "@misc{Key, title = {A}}\n")
	writeFile(t, b, "@misc{key, title = {B}}\n")
	cache := NewCache(parser.NewParser())

	for i := 0; i < 2; i++ {
		refs, diags, err := cache.Bibliography([]compiler.Document{readDoc(t, a), readDoc(t, b)})
		if err != nil {
			t.Fatal(err)
		}
		if refs.Len() != 1 {
			t.Errorf("call %d: Len() = %d, want 1", i, refs.Len())
		}
		if got := len(diags.ByKind(errors.KindDuplicateBibKey)); got != 1 {
			t.Errorf("call %d: %d DuplicateBibKey diagnostics, want 1", i, got)
		}
	}
}

func TestAdapter_Check(t *testing.T) {
	projectPath := studyProject(t)
	rec := newFakeRecorder()
	a := New(compiler.New(compiler.DefaultOptions())).WithMetrics(rec)

	for i := 0; i < 2; i++ {
		res, err := a.Check(context.Background(), projectPath, nil)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Diagnostics.Count() != 0 {
			t.Fatalf("diagnostics: %s", res.Diagnostics.Error())
		}
		if res.Stats.Items != 1 {
			t.Errorf("Items = %d, want 1", res.Stats.Items)
		}
	}

	if rec.misses[TemplateCache] != 1 || rec.hits[TemplateCache] != 1 {
		t.Errorf("template misses = %d, hits = %d, want 1 and 1",
			rec.misses[TemplateCache], rec.hits[TemplateCache])
	}
	if rec.hits[BibliographyCache] != 1 {
		t.Errorf("bibliography hits = %d, want 1", rec.hits[BibliographyCache])
	}
}

func TestAdapter_CheckOverlays(t *testing.T) {
	projectPath := studyProject(t)
	root := filepath.Dir(projectPath)
	a := New(compiler.New(compiler.DefaultOptions()))

	res, err := a.Check(context.Background(), projectPath, map[string][]byte{
		filepath.Join(root, "data", "a.syn"): []byte("ITEM @doe2021\n    mood: calm\nEND ITEM\n"),
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !res.Diagnostics.HasKind(errors.KindMissingRequiredField) {
		t.Errorf("overlay not compiled: %s", res.Diagnostics.Error())
	}

	edited := "TEMPLATE study\nITEM FIELDS\n    REQUIRED quote, page\nEND ITEM FIELDS\n" +
		"FIELD quote TYPE QUOTATION\nEND FIELD\nFIELD page TYPE TEXT\nEND FIELD\nEND TEMPLATE\n"
	res, err = a.Check(context.Background(), projectPath, map[string][]byte{
		filepath.Join(root, "study.synt"): []byte(edited),
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !res.Diagnostics.HasKind(errors.KindMissingRequiredField) {
		t.Errorf("template overlay not used: %s", res.Diagnostics.Error())
	}

	res, err = a.Check(context.Background(), projectPath, nil)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Diagnostics.Count() != 0 {
		t.Errorf("overlay leaked into the cache: %s", res.Diagnostics.Error())
	}
}

func TestAdapter_Watch(t *testing.T) {
	projectPath := studyProject(t)
	root := filepath.Dir(projectPath)
	a := New(compiler.New(compiler.DefaultOptions()))

	results := make(chan *compiler.Result, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.AdapterConfig{Debounce: 50 * time.Millisecond}
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, projectPath, cfg, func(res *compiler.Result, err error) {
			if err != nil {
				t.Errorf("compile error = %v", err)
				return
			}
			results <- res
		})
	}()

	select {
	case res := <-results:
		if res.Stats.Items != 1 {
			t.Errorf("initial Items = %d, want 1", res.Stats.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial compilation")
	}

	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "data", "b.syn"), "ITEM @doe2021\n    quote: second\nEND ITEM\n")

	select {
	case res := <-results:
		if res.Stats.Items != 2 {
			t.Errorf("Items after change = %d, want 2", res.Stats.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no recompilation after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Watch did not return after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(&WatcherConfig{
		Root:       root,
		Debounce:   10 * time.Millisecond,
		Extensions: config.DefaultAdapterExtensions,
		SkipHidden: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	settled := make(chan []string, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Watch(ctx, nil, func(paths []string) { settled <- paths })
	}()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, ".hidden.syn"), "x")
	writeFile(t, filepath.Join(root, "kept.syn"), "x")

	select {
	case paths := <-settled:
		want := filepath.Join(root, "kept.syn")
		if len(paths) != 1 || paths[0] != want {
			t.Errorf("settled paths = %v, want [%s]", paths, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settled batch")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var mu sync.Mutex
	calls := 0
	last := 0

	for i := 1; i <= 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			defer mu.Unlock()
			calls++
			last = i
		})
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if calls != 1 || last != 5 {
		t.Errorf("calls = %d, last = %d, want 1 and 5", calls, last)
	}
	mu.Unlock()

	d.Stop()
	d.Trigger(func() {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls after Stop = %d, want 1", calls)
	}
}

func TestNewWatcher_RequiresRoot(t *testing.T) {
	if _, err := NewWatcher(&WatcherConfig{}, nil); err == nil {
		t.Error("NewWatcher() without root succeeded")
	}
}
