package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"synesis-hq/synesis/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                true,
		Path:                   "/metrics",
		Namespace:              "test",
		CompileDurationBuckets: []float64{0.01, 0.1, 1},
		DocumentSizeBuckets:    []float64{100, 1000, 10000},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", config.DefaultMetricsNamespace, cfg.Namespace)
	}
	if len(cfg.CompileDurationBuckets) == 0 || len(cfg.DocumentSizeBuckets) == 0 {
		t.Error("expected default buckets")
	}
}

func TestCollector_RecordCompilation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name    string
		project string
		status  string
		want    float64
	}{
		{name: "first success", project: "study", status: "success", want: 1},
		{name: "second success", project: "study", status: "success", want: 2},
		{name: "failure", project: "study", status: "failed", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordCompilation(tt.project, tt.status, 20*time.Millisecond)

			got := testutil.ToFloat64(collector.compileMetrics.compilationsTotal.WithLabelValues(tt.project, tt.status))
			if got != tt.want {
				t.Errorf("Expected %v compilations, got %v", tt.want, got)
			}
		})
	}

	if n := testutil.CollectAndCount(collector.compileMetrics.compileDuration); n != 1 {
		t.Errorf("Expected 1 duration series, got %d", n)
	}
}

func TestCollector_RecordStage(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	for _, stage := range []string{"parse", "validate", "link"} {
		collector.RecordStage(stage, time.Millisecond)
	}

	if n := testutil.CollectAndCount(collector.compileMetrics.stageDuration); n != 3 {
		t.Errorf("Expected 3 stage series, got %d", n)
	}
}

func TestCollector_DocumentAndDiagnosticMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordDocument("annotations", 512)
	collector.RecordDocument("annotations", 2048)
	collector.RecordDocument("template", 300)
	collector.RecordDiagnostic("error", "OrphanItem")
	collector.RecordDiagnostic("warning", "UndefinedCode")
	collector.RecordDiagnostic("warning", "UndefinedCode")

	if got := testutil.ToFloat64(collector.documentMetrics.documentsTotal.WithLabelValues("annotations")); got != 2 {
		t.Errorf("Expected 2 annotation documents, got %v", got)
	}
	if got := testutil.ToFloat64(collector.diagnosticMetrics.diagnosticsTotal.WithLabelValues("warning", "UndefinedCode")); got != 2 {
		t.Errorf("Expected 2 UndefinedCode warnings, got %v", got)
	}
}

func TestCollector_CacheMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCacheMiss("template")
	collector.RecordCacheHit("template")
	collector.RecordCacheHit("template")
	collector.RecordCacheEviction("template")
	collector.UpdateCacheSize("template", 3)

	if got := testutil.ToFloat64(collector.cacheMetrics.hitsTotal.WithLabelValues("template")); got != 2 {
		t.Errorf("Expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.missesTotal.WithLabelValues("template")); got != 1 {
		t.Errorf("Expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.evictionsTotal.WithLabelValues("template")); got != 1 {
		t.Errorf("Expected 1 eviction, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.entries.WithLabelValues("template")); got != 3 {
		t.Errorf("Expected size 3, got %v", got)
	}
}

func TestCollector_ExportMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordExport("sqlite", "success")
	collector.RecordPrune(4)
	collector.RecordPrune(0)

	if got := testutil.ToFloat64(collector.exportMetrics.exportsTotal.WithLabelValues("sqlite", "success")); got != 1 {
		t.Errorf("Expected 1 export, got %v", got)
	}
	if got := testutil.ToFloat64(collector.exportMetrics.prunedRunsTotal); got != 4 {
		t.Errorf("Expected 4 pruned runs, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordCompilation("study", "success", time.Second)
	collector.RecordDocument("annotations", 10)
	collector.RecordCacheHit("template")

	if got := testutil.ToFloat64(collector.compileMetrics.compilationsTotal.WithLabelValues("study", "success")); got != 0 {
		t.Errorf("Expected no compilations when disabled, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.hitsTotal.WithLabelValues("template")); got != 0 {
		t.Errorf("Expected no hits when disabled, got %v", got)
	}
}

func TestCollector_ProjectCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	for i := 0; i < 105; i++ {
		collector.RecordCompilation(fmt.Sprintf("project-%d", i), "success", time.Millisecond)
	}

	if got := testutil.ToFloat64(collector.compileMetrics.compilationsTotal.WithLabelValues(OtherProject, "success")); got != 5 {
		t.Errorf("Expected 5 compilations aggregated as other, got %v", got)
	}
	if got := collector.cardinalityLimiter.Count(); got != 100 {
		t.Errorf("Expected cardinality 100, got %d", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("Expected first two label sets to be allowed")
	}
	if cl.Allow("c") {
		t.Error("Expected third label set to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("Expected known label set to be allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Expected count 2, got %d", cl.Count())
	}
}

func TestHandler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordCompilation("study", "success", 5*time.Millisecond)

	srv := httptest.NewServer(collector.NewServer().Handler)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(body), `test_compilations_total{project="study",status="success"} 1`) {
		t.Errorf("metric missing from scrape:\n%s", body)
	}
}
