package metrics

import (
	"synesis-hq/synesis/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DocumentMetrics tracks compiler inputs.
//
// Metrics:
//   - synesis_documents_total: Documents read by kind
//   - synesis_document_size_bytes: Document sizes by kind
type DocumentMetrics struct {
	documentsTotal *prometheus.CounterVec
	documentSize   *prometheus.HistogramVec
}

// NewDocumentMetrics creates and registers document metrics with the
// provided registry.
func NewDocumentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DocumentMetrics {
	dm := &DocumentMetrics{
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "documents_total",
				Help:      "Total number of documents compiled",
			},
			[]string{"kind"},
		),

		documentSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "document_size_bytes",
				Help:      "Size of compiled documents in bytes",
				Buckets:   cfg.DocumentSizeBuckets,
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(dm.documentsTotal, dm.documentSize)
	return dm
}

// RecordDocument records one document of the given kind and size.
func (dm *DocumentMetrics) RecordDocument(kind string, size int) {
	dm.documentsTotal.WithLabelValues(kind).Inc()
	dm.documentSize.WithLabelValues(kind).Observe(float64(size))
}

// DiagnosticMetrics tracks reported diagnostics.
//
// Metrics:
//   - synesis_diagnostics_total: Diagnostics by severity and kind
type DiagnosticMetrics struct {
	diagnosticsTotal *prometheus.CounterVec
}

// NewDiagnosticMetrics creates and registers diagnostic metrics with the
// provided registry.
func NewDiagnosticMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DiagnosticMetrics {
	dm := &DiagnosticMetrics{
		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "diagnostics_total",
				Help:      "Total number of diagnostics reported",
			},
			[]string{"severity", "kind"},
		),
	}

	registry.MustRegister(dm.diagnosticsTotal)
	return dm
}

// RecordDiagnostic records one diagnostic. The kind label is bounded by the
// fixed set of diagnostic kinds.
func (dm *DiagnosticMetrics) RecordDiagnostic(severity, kind string) {
	dm.diagnosticsTotal.WithLabelValues(severity, kind).Inc()
}
