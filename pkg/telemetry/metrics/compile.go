package metrics

import (
	"time"

	"synesis-hq/synesis/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CompileMetrics tracks compilations.
//
// Metrics:
//   - synesis_compilations_total: Compilations by project and status
//   - synesis_compile_duration_seconds: Compilation wall time by project
//   - synesis_stage_duration_seconds: Pipeline stage durations
type CompileMetrics struct {
	compilationsTotal *prometheus.CounterVec
	compileDuration   *prometheus.HistogramVec
	stageDuration     *prometheus.HistogramVec
}

// NewCompileMetrics creates and registers compilation metrics with the
// provided registry.
func NewCompileMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompileMetrics {
	cm := &CompileMetrics{
		compilationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compilations_total",
				Help:      "Total number of compilations",
			},
			[]string{"project", "status"},
		),

		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compile_duration_seconds",
				Help:      "Duration of a whole compilation in seconds",
				Buckets:   cfg.CompileDurationBuckets,
			},
			[]string{"project"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Duration of one compiler pipeline stage in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9), // 100µs to 6.5s
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		cm.compilationsTotal,
		cm.compileDuration,
		cm.stageDuration,
	)

	return cm
}

// RecordCompilation records a finished compilation.
func (cm *CompileMetrics) RecordCompilation(project, status string, duration time.Duration) {
	cm.compilationsTotal.WithLabelValues(project, status).Inc()
	cm.compileDuration.WithLabelValues(project).Observe(duration.Seconds())
}

// RecordStage records the duration of a pipeline stage.
func (cm *CompileMetrics) RecordStage(stage string, duration time.Duration) {
	cm.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}
