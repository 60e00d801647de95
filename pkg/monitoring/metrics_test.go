package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	// Test that all metrics are properly registered
	metrics := []prometheus.Collector{
		ToolRequestsTotal,
		ToolRequestDuration,
		RouteLookupsTotal,
		RateLimitExceeded,
		CacheHits,
		CacheMisses,
		CacheSize,
		ActiveConnections,
		ErrorsTotal,
		SystemInfo,
		GoRoutines,
		MemoryUsage,
		GCRuns,
	}

	for _, metric := range metrics {
		if metric == nil {
			t.Error("Metric is nil")
		}
	}
}

func TestRecordToolRequest(t *testing.T) {
	// Clear any existing metrics
	ToolRequestsTotal.Reset()

	// Test successful request
	RecordToolRequest("plan_trip", 100*time.Millisecond, true)

	if got := testutil.ToFloat64(ToolRequestsTotal.WithLabelValues("plan_trip", "success")); got != 1 {
		t.Errorf("Expected 1 successful request, got %v", got)
	}

	// Test failed request
	RecordToolRequest("plan_trip", 200*time.Millisecond, false)

	if got := testutil.ToFloat64(ToolRequestsTotal.WithLabelValues("plan_trip", "error")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
}

func TestRecordRouteLookup(t *testing.T) {
	// Clear any existing metrics
	RouteLookupsTotal.Reset()

	RecordRouteLookup(true)
	if got := testutil.ToFloat64(RouteLookupsTotal.WithLabelValues("found")); got != 1 {
		t.Errorf("Expected 1 found lookup, got %v", got)
	}

	RecordRouteLookup(false)
	RecordRouteLookup(false)
	if got := testutil.ToFloat64(RouteLookupsTotal.WithLabelValues("not_found")); got != 2 {
		t.Errorf("Expected 2 not_found lookups, got %v", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	// Clear any existing metrics
	CacheHits.Reset()
	CacheMisses.Reset()
	CacheSize.Reset()

	// Test cache hit
	RecordCacheHit("route_lookup")
	if got := testutil.ToFloat64(CacheHits.WithLabelValues("route_lookup")); got != 1 {
		t.Errorf("Expected 1 cache hit, got %v", got)
	}

	// Test cache miss
	RecordCacheMiss("route_lookup")
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("route_lookup")); got != 1 {
		t.Errorf("Expected 1 cache miss, got %v", got)
	}

	// Test cache size update
	UpdateCacheSize("route_lookup", 42)
	if got := testutil.ToFloat64(CacheSize.WithLabelValues("route_lookup")); got != 42 {
		t.Errorf("Expected cache size 42, got %v", got)
	}
}

func TestRateLimitMetrics(t *testing.T) {
	// Clear any existing metrics
	RateLimitExceeded.Reset()

	RecordRateLimitExceeded("http")
	if got := testutil.ToFloat64(RateLimitExceeded.WithLabelValues("http")); got != 1 {
		t.Errorf("Expected 1 rate limit exceeded, got %v", got)
	}
}

func TestErrorMetrics(t *testing.T) {
	// Clear any existing metrics
	ErrorsTotal.Reset()

	RecordError("catalog", "route_not_found")
	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("catalog", "route_not_found")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestUpdateActiveConnections(t *testing.T) {
	// Clear any existing metrics
	ActiveConnections.Reset()

	UpdateActiveConnections("http", "client", 5)
	if got := testutil.ToFloat64(ActiveConnections.WithLabelValues("http", "client")); got != 5 {
		t.Errorf("Expected 5 active connections, got %v", got)
	}
}

func BenchmarkRecordToolRequest(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordToolRequest("calculate_emission", 100*time.Millisecond, true)
	}
}

func BenchmarkRecordCacheHit(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordCacheHit("route_lookup")
	}
}
