package core

import "time"

// EventKind identifies a category of adapter event.
type EventKind string

const (
	// EventOperationStarted fires when a facade operation begins.
	EventOperationStarted EventKind = "operation.started"
	// EventOperationFinished fires when a facade operation completes.
	EventOperationFinished EventKind = "operation.finished"
	// EventOperationFailed fires when a facade operation returns an error.
	EventOperationFailed EventKind = "operation.failed"
	// EventCacheHit fires when a cache lookup is served without a fetch.
	EventCacheHit EventKind = "cache.hit"
	// EventCacheMiss fires when a cache lookup falls through to a loader.
	EventCacheMiss EventKind = "cache.miss"
	// EventStageCorrected fires when a stage value is normalized or
	// substituted during validation.
	EventStageCorrected EventKind = "stage.corrected"
	// EventVerifyDiscrepancy fires for each semantic discrepancy found by
	// post-write verification.
	EventVerifyDiscrepancy EventKind = "verify.discrepancy"
	// EventSearchDegraded fires when a recoverable downstream failure is
	// converted into an empty result set.
	EventSearchDegraded EventKind = "search.degraded"
)

// Event is an observable adapter occurrence. OperationID groups the
// events of a single facade call.
type Event struct {
	Kind        EventKind
	OperationID string
	Operation   string
	Resource    ResourceType
	Time        time.Time
	Elapsed     time.Duration

	// TraceID and SpanID carry OpenTelemetry correlation when tracing is
	// active; empty otherwise.
	TraceID string
	SpanID  string

	Payload map[string]any
}

// EventEmitter delivers events to interested handlers. Emitters must be
// safe for concurrent use and must not block.
type EventEmitter func(Event)

// EventHandler consumes adapter events.
type EventHandler interface {
	Handle(Event)
}

// MultiEmitter fans an event out to every handler in order.
func MultiEmitter(handlers ...EventHandler) EventEmitter {
	return func(e Event) {
		for _, h := range handlers {
			if h != nil {
				h.Handle(e)
			}
		}
	}
}
