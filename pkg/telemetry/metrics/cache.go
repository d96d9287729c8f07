package metrics

import (
	"synesis-hq/synesis/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the editor adapter caches of built templates and
// bibliographies.
//
// Metrics:
//   - synesis_cache_hits_total: Lookups served from cache
//   - synesis_cache_misses_total: Lookups that had to build
//   - synesis_cache_entries: Current number of entries
//   - synesis_cache_evictions_total: Entries dropped by invalidation or a
//     changed modification time
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	entries        *prometheus.GaugeVec
	evictionsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// UpdateSize updates the current size of a cache.
func (cm *CacheMetrics) UpdateSize(cacheName string, size int) {
	cm.entries.WithLabelValues(cacheName).Set(float64(size))
}

// RecordEviction records a cache eviction.
func (cm *CacheMetrics) RecordEviction(cacheName string) {
	cm.evictionsTotal.WithLabelValues(cacheName).Inc()
}

// ExportMetrics tracks exporters and run retention.
//
// Metrics:
//   - synesis_exports_total: Exporter runs by format and status
//   - synesis_pruned_runs_total: Stored runs removed by retention
type ExportMetrics struct {
	exportsTotal    *prometheus.CounterVec
	prunedRunsTotal prometheus.Counter
}

// NewExportMetrics creates and registers export metrics with the provided
// registry.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Total number of exporter runs",
			},
			[]string{"format", "status"},
		),

		prunedRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pruned_runs_total",
				Help:      "Total number of stored runs removed by retention",
			},
		),
	}

	registry.MustRegister(em.exportsTotal, em.prunedRunsTotal)
	return em
}

// RecordExport records one exporter run.
func (em *ExportMetrics) RecordExport(format, status string) {
	em.exportsTotal.WithLabelValues(format, status).Inc()
}

// RecordPrune adds removed runs to the pruned counter.
func (em *ExportMetrics) RecordPrune(removed int64) {
	if removed > 0 {
		em.prunedRunsTotal.Add(float64(removed))
	}
}
