package metrics

import (
	"sync"
	"time"

	"synesis-hq/synesis/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherProject replaces project labels once the cardinality limit is
// reached.
const OtherProject = "other"

// Collector owns every Prometheus metric of the compiler and exposes one
// method per event. All methods are no-ops when metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	compileMetrics    *CompileMetrics
	documentMetrics   *DocumentMetrics
	diagnosticMetrics *DiagnosticMetrics
	cacheMetrics      *CacheMetrics
	exportMetrics     *ExportMetrics

	// Bounds the number of distinct project labels.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering its metrics with registry.
// A nil registry selects a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "synesis"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.CompileDurationBuckets) == 0 {
		cfg.CompileDurationBuckets = config.DefaultCompileDurationBuckets
	}
	if len(cfg.DocumentSizeBuckets) == 0 {
		cfg.DocumentSizeBuckets = config.DefaultDocumentSizeBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		compileMetrics:     NewCompileMetrics(cfg, registry),
		documentMetrics:    NewDocumentMetrics(cfg, registry),
		diagnosticMetrics:  NewDiagnosticMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		exportMetrics:      NewExportMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(100),
	}
}

// RecordCompilation records a finished compilation.
//
// Parameters:
//   - project: Project name
//   - status: "success", "failed" or "error"
//   - duration: Wall time of the whole pipeline
func (c *Collector) RecordCompilation(project, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(project) {
		project = OtherProject
	}
	c.compileMetrics.RecordCompilation(project, status, duration)
}

// RecordStage records the duration of one pipeline stage (parse, template,
// bibliography, build, validate, link).
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.compileMetrics.RecordStage(stage, duration)
}

// RecordDocument records one input document by kind (project, template,
// bibliography, annotations, ontology) and size in bytes.
func (c *Collector) RecordDocument(kind string, size int) {
	if !c.config.Enabled {
		return
	}

	c.documentMetrics.RecordDocument(kind, size)
}

// RecordDiagnostic records one reported diagnostic.
func (c *Collector) RecordDiagnostic(severity, kind string) {
	if !c.config.Enabled {
		return
	}

	c.diagnosticMetrics.RecordDiagnostic(severity, kind)
}

// RecordCacheHit records a hit in the named adapter cache.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a miss in the named adapter cache.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordMiss(cacheName)
}

// RecordCacheEviction records an entry dropped from the named cache,
// either explicitly or because its file changed.
func (c *Collector) RecordCacheEviction(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordEviction(cacheName)
}

// UpdateCacheSize sets the number of entries of the named cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordExport records one exporter run.
//
// Parameters:
//   - format: "json", "csv", "sqlite" or "xlsx"
//   - status: "success" or "error"
func (c *Collector) RecordExport(format, status string) {
	if !c.config.Enabled {
		return
	}

	c.exportMetrics.RecordExport(format, status)
}

// RecordPrune records the number of stored runs removed by one retention
// pass.
func (c *Collector) RecordPrune(removed int64) {
	if !c.config.Enabled {
		return
	}

	c.exportMetrics.RecordPrune(removed)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it is already known or
// the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
