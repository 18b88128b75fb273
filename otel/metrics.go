package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/recordflow/core"
)

// MetricsHandler translates adapter events into OpenTelemetry metrics.
// It records counters for operations, cache traffic, stage corrections,
// and verification discrepancies, plus a histogram of operation duration.
type MetricsHandler struct {
	opExecutions metric.Int64Counter
	opFailures   metric.Int64Counter
	opDuration   metric.Float64Histogram

	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	stageCorrections  metric.Int64Counter
	verifyDiscrepancy metric.Int64Counter
	searchDegraded    metric.Int64Counter
}

// NewMetricsHandler creates a MetricsHandler that uses the given meter to
// create its instruments.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	opExec, err := meter.Int64Counter("recordflow.operation.executions",
		metric.WithDescription("Number of adapter operations"),
	)
	if err != nil {
		return nil, err
	}

	opFail, err := meter.Int64Counter("recordflow.operation.failures",
		metric.WithDescription("Number of failed adapter operations"),
	)
	if err != nil {
		return nil, err
	}

	opDur, err := meter.Float64Histogram("recordflow.operation.duration",
		metric.WithDescription("Duration of adapter operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	hits, err := meter.Int64Counter("recordflow.cache.hits",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("recordflow.cache.misses",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	corrections, err := meter.Int64Counter("recordflow.stage.corrections",
		metric.WithDescription("Number of stage values normalized or substituted"),
	)
	if err != nil {
		return nil, err
	}

	discrepancies, err := meter.Int64Counter("recordflow.verify.discrepancies",
		metric.WithDescription("Number of semantic persistence discrepancies"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter("recordflow.search.degraded",
		metric.WithDescription("Number of searches degraded to empty results"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		opExecutions:      opExec,
		opFailures:        opFail,
		opDuration:        opDur,
		cacheHits:         hits,
		cacheMisses:       misses,
		stageCorrections:  corrections,
		verifyDiscrepancy: discrepancies,
		searchDegraded:    degraded,
	}, nil
}

// Handle processes an adapter event and records the appropriate metrics.
// It implements core.EventHandler.
func (h *MetricsHandler) Handle(e core.Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("operation", e.Operation),
		attribute.String("resource", string(e.Resource)),
	)

	switch e.Kind {
	case core.EventOperationFinished:
		h.opExecutions.Add(ctx, 1, attrs)
		h.opDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
	case core.EventOperationFailed:
		h.opExecutions.Add(ctx, 1, attrs)
		h.opFailures.Add(ctx, 1, attrs)
		h.opDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
	case core.EventCacheHit:
		h.cacheHits.Add(ctx, 1, attrs)
	case core.EventCacheMiss:
		h.cacheMisses.Add(ctx, 1, attrs)
	case core.EventStageCorrected:
		h.stageCorrections.Add(ctx, 1, attrs)
	case core.EventVerifyDiscrepancy:
		h.verifyDiscrepancy.Add(ctx, 1, attrs)
	case core.EventSearchDegraded:
		h.searchDegraded.Add(ctx, 1, attrs)
	}
}
