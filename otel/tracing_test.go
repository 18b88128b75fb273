package otel_test

import (
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petal-labs/recordflow/core"
	flowotel "github.com/petal-labs/recordflow/otel"
)

// newTestTracer returns a tracer backed by an in-memory span exporter.
func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	return exporter, tp
}

func TestTracingHandler_OperationLifecycle(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(core.Event{
		Kind:        core.EventOperationStarted,
		OperationID: "op-1",
		Operation:   "CreateRecord",
		Resource:    core.ResourceDeals,
		Time:        now,
	})

	// Span is active but not yet exported.
	if len(exporter.GetSpans()) != 0 {
		t.Fatalf("span ended early: %d exported", len(exporter.GetSpans()))
	}
	if !h.ActiveSpanContext("op-1").IsValid() {
		t.Error("active span context should be valid mid-operation")
	}

	h.Handle(core.Event{
		Kind:        core.EventOperationFinished,
		OperationID: "op-1",
		Operation:   "CreateRecord",
		Resource:    core.ResourceDeals,
		Time:        now.Add(50 * time.Millisecond),
		Elapsed:     50 * time.Millisecond,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "op:CreateRecord" {
		t.Errorf("span name = %q", span.Name)
	}
	if span.Status.Code != otelcodes.Ok {
		t.Errorf("status = %v, want Ok", span.Status.Code)
	}
	if h.ActiveSpanContext("op-1").IsValid() {
		t.Error("span context should be cleared after finish")
	}
}

func TestTracingHandler_OperationFailedSetsErrorStatus(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	h.Handle(core.Event{Kind: core.EventOperationStarted, OperationID: "op-2", Operation: "UpdateRecord"})
	h.Handle(core.Event{
		Kind:        core.EventOperationFailed,
		OperationID: "op-2",
		Operation:   "UpdateRecord",
		Payload:     map[string]any{"error": "stage mismatch"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != otelcodes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "stage mismatch" {
		t.Errorf("status description = %q", spans[0].Status.Description)
	}
}

func TestTracingHandler_IntermediateEventsAttachToSpan(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	h.Handle(core.Event{Kind: core.EventOperationStarted, OperationID: "op-3", Operation: "SearchRecords"})
	h.Handle(core.Event{
		Kind:        core.EventCacheMiss,
		OperationID: "op-3",
		Resource:    core.ResourceTasks,
		Payload:     map[string]any{"cache_key": "collection:tasks"},
	})
	h.Handle(core.Event{Kind: core.EventOperationFinished, OperationID: "op-3", Operation: "SearchRecords"})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	events := spans[0].Events
	if len(events) != 1 {
		t.Fatalf("span events = %d, want 1", len(events))
	}
	if events[0].Name != string(core.EventCacheMiss) {
		t.Errorf("event name = %q", events[0].Name)
	}
}

func TestTracingHandler_UnknownOperationIgnored(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	h.Handle(core.Event{Kind: core.EventOperationFinished, OperationID: "never-started"})
	h.Handle(core.Event{Kind: core.EventCacheHit, OperationID: "never-started"})

	if len(exporter.GetSpans()) != 0 {
		t.Errorf("no spans expected, got %d", len(exporter.GetSpans()))
	}
}

func TestEnrichEmitter_PopulatesTraceContext(t *testing.T) {
	_, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	var captured core.Event
	emit := flowotel.EnrichEmitter(func(e core.Event) { captured = e }, h)

	h.Handle(core.Event{Kind: core.EventOperationStarted, OperationID: "op-4", Operation: "GetRecord"})
	emit(core.Event{Kind: core.EventCacheHit, OperationID: "op-4"})

	if captured.TraceID == "" || captured.SpanID == "" {
		t.Errorf("trace context not populated: %+v", captured)
	}
}

func TestNewEmitter_FansOutToBothHandlers(t *testing.T) {
	exporter, tp := newTestTracer()
	tracing := flowotel.NewTracingHandler(tp.Tracer("test"))
	reader, mp := newTestMeter()
	metrics, err := flowotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	emit := flowotel.NewEmitter(tracing, metrics)
	emit(core.Event{Kind: core.EventOperationStarted, OperationID: "op-9", Operation: "GetRecord"})
	emit(core.Event{Kind: core.EventCacheHit, OperationID: "op-9"})
	emit(core.Event{Kind: core.EventOperationFinished, OperationID: "op-9", Operation: "GetRecord"})

	if got := len(exporter.GetSpans()); got != 1 {
		t.Errorf("spans = %d, want 1", got)
	}
	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "recordflow.cache.hits"); got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}
	if got := counterValue(t, rm, "recordflow.operation.executions"); got != 1 {
		t.Errorf("executions = %d, want 1", got)
	}
}

func TestNewEmitter_NilTracingStillCountsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	metrics, err := flowotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	emit := flowotel.NewEmitter(nil, metrics)
	emit(core.Event{Kind: core.EventCacheMiss, OperationID: "op-10"})

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "recordflow.cache.misses"); got != 1 {
		t.Errorf("cache misses = %d, want 1", got)
	}
}

func TestEnrichEmitter_NoActiveSpanPassesThrough(t *testing.T) {
	_, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	var captured core.Event
	emit := flowotel.EnrichEmitter(func(e core.Event) { captured = e }, h)

	emit(core.Event{Kind: core.EventCacheHit, OperationID: "op-5"})
	if captured.TraceID != "" {
		t.Errorf("TraceID = %q, want empty", captured.TraceID)
	}
}
