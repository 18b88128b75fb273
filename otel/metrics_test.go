package otel_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/petal-labs/recordflow/core"
	flowotel "github.com/petal-labs/recordflow/otel"
)

// newTestMeter returns a meter backed by a manual reader for collecting metrics in tests.
func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm *metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %s not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %s is not an int64 sum", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsHandler_OperationFinished(t *testing.T) {
	reader, mp := newTestMeter()
	h, err := flowotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	h.Handle(core.Event{
		Kind:        core.EventOperationFinished,
		OperationID: "op-1",
		Operation:   "SearchRecords",
		Resource:    core.ResourceCompanies,
		Elapsed:     120 * time.Millisecond,
	})

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "recordflow.operation.executions"); got != 1 {
		t.Errorf("executions = %d, want 1", got)
	}
	if findMetric(rm, "recordflow.operation.failures") != nil {
		if got := counterValue(t, rm, "recordflow.operation.failures"); got != 0 {
			t.Errorf("failures = %d, want 0", got)
		}
	}

	dur := findMetric(rm, "recordflow.operation.duration")
	if dur == nil {
		t.Fatal("duration histogram not recorded")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatalf("duration histogram shape: %v", dur.Data)
	}
	if got := hist.DataPoints[0].Sum; got < 0.119 || got > 0.121 {
		t.Errorf("duration sum = %v, want ~0.12s", got)
	}
}

func TestMetricsHandler_OperationFailedCountsBoth(t *testing.T) {
	reader, mp := newTestMeter()
	h, err := flowotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	h.Handle(core.Event{
		Kind:      core.EventOperationFailed,
		Operation: "UpdateRecord",
		Resource:  core.ResourceDeals,
		Elapsed:   time.Millisecond,
	})

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "recordflow.operation.executions"); got != 1 {
		t.Errorf("executions = %d, want 1", got)
	}
	if got := counterValue(t, rm, "recordflow.operation.failures"); got != 1 {
		t.Errorf("failures = %d, want 1", got)
	}
}

func TestMetricsHandler_CacheAndDomainCounters(t *testing.T) {
	reader, mp := newTestMeter()
	h, err := flowotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	events := []core.EventKind{
		core.EventCacheHit, core.EventCacheHit,
		core.EventCacheMiss,
		core.EventStageCorrected,
		core.EventVerifyDiscrepancy,
		core.EventSearchDegraded,
	}
	for _, kind := range events {
		h.Handle(core.Event{Kind: kind, Resource: core.ResourceTasks})
	}

	rm := collectMetrics(t, reader)
	checks := map[string]int64{
		"recordflow.cache.hits":           2,
		"recordflow.cache.misses":         1,
		"recordflow.stage.corrections":    1,
		"recordflow.verify.discrepancies": 1,
		"recordflow.search.degraded":      1,
	}
	for name, want := range checks {
		if got := counterValue(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}
