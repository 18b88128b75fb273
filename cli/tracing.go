package cli

import (
	"context"

	otelapi "go.opentelemetry.io/otel"

	flowotel "github.com/petal-labs/recordflow/otel"
)

// SetupTracing installs a global OTLP-backed tracer provider and returns
// its shutdown function. Endpoint is host:port with no scheme.
func SetupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	tp, err := flowotel.NewTraceProvider(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	otelapi.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
