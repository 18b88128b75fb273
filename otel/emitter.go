package otel

import (
	"github.com/petal-labs/recordflow/core"
)

// NewEmitter composes the tracing and metrics handlers into one emitter
// suitable for Service options: events fan out to both handlers, with the
// active trace context stamped on first. Either handler may be nil.
func NewEmitter(tracing *TracingHandler, metrics *MetricsHandler) core.EventEmitter {
	handlers := make([]core.EventHandler, 0, 2)
	if tracing != nil {
		handlers = append(handlers, tracing)
	}
	if metrics != nil {
		handlers = append(handlers, metrics)
	}
	fan := core.MultiEmitter(handlers...)
	if tracing == nil {
		return fan
	}
	return EnrichEmitter(fan, tracing)
}

// EnrichEmitter wraps an EventEmitter with OpenTelemetry trace context.
// When events are emitted, it looks up the active operation span from the
// TracingHandler and populates the TraceID and SpanID fields on the
// event. When no span is active, the event passes through unchanged.
func EnrichEmitter(emit core.EventEmitter, tracing *TracingHandler) core.EventEmitter {
	return func(e core.Event) {
		if e.OperationID != "" {
			sc := tracing.ActiveSpanContext(e.OperationID)
			if sc.IsValid() {
				e.TraceID = sc.TraceID().String()
				e.SpanID = sc.SpanID().String()
			}
		}
		emit(e)
	}
}
