// Package otel provides OpenTelemetry integration for adapter events.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/recordflow/core"
)

// TracingHandler translates adapter events into OpenTelemetry spans. It
// keeps a map of active operation spans, creating one per operation ID
// and ending it when the operation finishes or fails. Intermediate
// events (cache traffic, stage corrections, verification discrepancies)
// are attached to the active span as span events.
type TracingHandler struct {
	tracer trace.Tracer

	mu      sync.RWMutex
	opSpans map[string]trace.Span // operationID -> span
}

// NewTracingHandler creates a TracingHandler that uses the given tracer.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:  tracer,
		opSpans: make(map[string]trace.Span),
	}
}

// Handle processes an adapter event and creates or ends spans
// accordingly. It implements core.EventHandler.
func (h *TracingHandler) Handle(e core.Event) {
	switch e.Kind {
	case core.EventOperationStarted:
		h.handleStarted(e)
	case core.EventOperationFinished:
		h.handleFinished(e)
	case core.EventOperationFailed:
		h.handleFailed(e)
	case core.EventCacheHit, core.EventCacheMiss,
		core.EventStageCorrected, core.EventVerifyDiscrepancy,
		core.EventSearchDegraded:
		h.handleIntermediate(e)
	}
}

func (h *TracingHandler) handleStarted(e core.Event) {
	_, span := h.tracer.Start(context.Background(), "op:"+e.Operation,
		trace.WithAttributes(
			attribute.String("recordflow.operation_id", e.OperationID),
			attribute.String("recordflow.operation", e.Operation),
			attribute.String("recordflow.resource", string(e.Resource)),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.opSpans[e.OperationID] = span
	h.mu.Unlock()
}

func (h *TracingHandler) handleFinished(e core.Event) {
	span, ok := h.takeSpan(e.OperationID)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("recordflow.duration", e.Elapsed.String()))
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) handleFailed(e core.Event) {
	span, ok := h.takeSpan(e.OperationID)
	if !ok {
		return
	}

	errMsg := "operation failed"
	if msg, found := e.Payload["error"]; found {
		if s, ok := msg.(string); ok {
			errMsg = s
		}
	}
	span.SetStatus(codes.Error, errMsg)
	span.RecordError(spanError(errMsg), trace.WithTimestamp(e.Time))
	span.End(trace.WithTimestamp(e.Time))
}

// handleIntermediate attaches a span event to the active operation span.
func (h *TracingHandler) handleIntermediate(e core.Event) {
	h.mu.RLock()
	span, ok := h.opSpans[e.OperationID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("recordflow.event_kind", string(e.Kind)),
		attribute.String("recordflow.resource", string(e.Resource)),
	}
	for _, key := range []string{"cache_key", "field", "from", "to"} {
		if v, found := e.Payload[key]; found {
			if s, ok := v.(string); ok {
				attrs = append(attrs, attribute.String("recordflow."+key, s))
			}
		}
	}

	span.AddEvent(string(e.Kind), trace.WithTimestamp(e.Time), trace.WithAttributes(attrs...))
}

func (h *TracingHandler) takeSpan(operationID string) (trace.Span, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.opSpans[operationID]
	if ok {
		delete(h.opSpans, operationID)
	}
	return span, ok
}

// ActiveSpanContext returns the SpanContext for the active operation
// span. Returns an empty SpanContext if not found.
func (h *TracingHandler) ActiveSpanContext(operationID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.opSpans[operationID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

// spanError is a simple error type for recording span errors.
type spanError string

func (e spanError) Error() string { return string(e) }
