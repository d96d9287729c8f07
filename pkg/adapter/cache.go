package adapter

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"synesis-hq/synesis/pkg/syn/bib"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
	"synesis-hq/synesis/pkg/syn/template"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// Cache names used in metrics.
const (
	TemplateCache     = "template"
	BibliographyCache = "bibliography"
)

// CacheRecorder receives cache metrics. The telemetry metrics collector
// implements it.
type CacheRecorder interface {
	RecordCacheHit(cacheName string)
	RecordCacheMiss(cacheName string)
	RecordCacheEviction(cacheName string)
	UpdateCacheSize(cacheName string, size int)
}

// stamp identifies one version of a file on disk.
type stamp struct {
	modTime time.Time
	size    int64
}

type templateEntry struct {
	stamp stamp
	model *template.Model
	diags *errors.DiagnosticList
}

type bibEntry struct {
	stamp stamp
	bib   *bib.Bibliography
	diags *errors.DiagnosticList
}

// Cache holds built templates and parsed bibliography files by path,
// together with the modification time and size they were built from. An
// entry whose file changed on disk is rebuilt on the next lookup, never
// served. Entries are also dropped by Invalidate.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	parser    *parser.Parser
	templates map[string]*templateEntry
	bibs      map[string]*bibEntry
	recorder  CacheRecorder
	logger    *slog.Logger
}

// NewCache creates an empty cache that builds templates with p.
func NewCache(p *parser.Parser) *Cache {
	return &Cache{
		parser:    p,
		templates: make(map[string]*templateEntry),
		bibs:      make(map[string]*bibEntry),
		logger:    logging.Discard(),
	}
}

// WithMetrics sets the metrics recorder.
func (c *Cache) WithMetrics(r CacheRecorder) *Cache {
	c.recorder = r
	return c
}

// WithLogger sets the logger.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Template returns the model built from doc. The cached model is used when
// the file at doc.Path still has the modification time and size it was
// built from. Documents that are not files on disk are built every time.
func (c *Cache) Template(doc compiler.Document) (*template.Model, *errors.DiagnosticList, error) {
	path := filepath.Clean(doc.Path)
	st, onDisk := statFile(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.templates[path]; ok {
		if onDisk && e.stamp == st {
			c.hit(TemplateCache)
			return e.model, e.diags.Clone(), nil
		}
		delete(c.templates, path)
		c.evict(TemplateCache, path)
	}
	c.miss(TemplateCache)

	model, diags, err := compiler.LoadTemplate(c.parser, doc)
	if err != nil {
		return nil, nil, err
	}
	if onDisk {
		c.templates[path] = &templateEntry{stamp: st, model: model, diags: diags.Clone()}
		c.updateSize()
	}
	return model, diags, nil
}

// Bibliography returns the merged bibliography of docs. Each file is
// parsed once per version; merging, and with it the detection of keys
// duplicated across files, runs on every call.
func (c *Cache) Bibliography(docs []compiler.Document) (*bib.Bibliography, *errors.DiagnosticList, error) {
	merged := bib.New()
	diags := errors.NewDiagnosticList()
	for _, doc := range docs {
		b, fileDiags, err := c.bibliographyFile(doc)
		if err != nil {
			return nil, nil, err
		}
		diags.Merge(fileDiags)
		merged.Merge(b, diags)
	}
	return merged, diags, nil
}

func (c *Cache) bibliographyFile(doc compiler.Document) (*bib.Bibliography, *errors.DiagnosticList, error) {
	path := filepath.Clean(doc.Path)
	st, onDisk := statFile(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.bibs[path]; ok {
		if onDisk && e.stamp == st {
			c.hit(BibliographyCache)
			return e.bib, e.diags.Clone(), nil
		}
		delete(c.bibs, path)
		c.evict(BibliographyCache, path)
	}
	c.miss(BibliographyCache)

	b, diags, err := bib.Parse(doc.Data, doc.Path)
	if err != nil {
		return nil, nil, err
	}
	if onDisk {
		c.bibs[path] = &bibEntry{stamp: st, bib: b, diags: diags.Clone()}
		c.updateSize()
	}
	return b, diags, nil
}

// Artifacts returns the template and bibliography of in, served from the
// cache where possible.
func (c *Cache) Artifacts(in *compiler.Inputs) (*compiler.Artifacts, error) {
	model, tmplDiags, err := c.Template(in.Template)
	if err != nil {
		return nil, err
	}
	refs, bibDiags, err := c.Bibliography(in.Bibliographies)
	if err != nil {
		return nil, err
	}
	return &compiler.Artifacts{
		Template:                model,
		TemplateDiagnostics:     tmplDiags,
		Bibliography:            refs,
		BibliographyDiagnostics: bibDiags,
	}, nil
}

// Invalidate drops every entry built from path and reports whether there
// was one.
func (c *Cache) Invalidate(path string) bool {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	if _, ok := c.templates[path]; ok {
		delete(c.templates, path)
		c.evict(TemplateCache, path)
		found = true
	}
	if _, ok := c.bibs[path]; ok {
		delete(c.bibs, path)
		c.evict(BibliographyCache, path)
		found = true
	}
	if found {
		c.updateSize()
	}
	return found
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.templates {
		c.evict(TemplateCache, path)
	}
	for path := range c.bibs {
		c.evict(BibliographyCache, path)
	}
	c.templates = make(map[string]*templateEntry)
	c.bibs = make(map[string]*bibEntry)
	c.updateSize()
}

// Len returns the number of cached templates and bibliography files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.templates) + len(c.bibs)
}

func (c *Cache) hit(name string) {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(name)
	}
}

func (c *Cache) miss(name string) {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(name)
	}
}

func (c *Cache) evict(name, path string) {
	c.logger.Debug("cache entry dropped", "cache", name, "path", path)
	if c.recorder != nil {
		c.recorder.RecordCacheEviction(name)
	}
}

func (c *Cache) updateSize() {
	if c.recorder != nil {
		c.recorder.UpdateCacheSize(TemplateCache, len(c.templates))
		c.recorder.UpdateCacheSize(BibliographyCache, len(c.bibs))
	}
}

// statFile returns the stamp of the regular file at path.
func statFile(path string) (stamp, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return stamp{}, false
	}
	return stamp{modTime: info.ModTime(), size: info.Size()}, true
}
