// Package observe provides OpenTelemetry metrics for the turn pipeline.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all solace metrics.
const meterName = "github.com/solacevoice/solace"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// StageDuration tracks the latency of every pipeline stage. Use with
	// attribute.String("stage", ...); stages are validate, transcribe,
	// sentiment, face, generate, and synthesize.
	StageDuration metric.Float64Histogram

	// Turns counts completed orchestrator invocations. Use with attributes:
	//   attribute.String("modality", ...), attribute.String("outcome", ...)
	Turns metric.Int64Counter

	// ProviderErrors counts external capability errors, including the ones the
	// pipeline downgrades rather than propagates. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// ArtifactsStored counts synthesized reply artifacts written to the store.
	ArtifactsStored metric.Int64Counter

	// ArtifactsReaped counts artifacts removed by the retention sweep.
	ArtifactsReaped metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Stages
// range from sub-millisecond validation to multi-second generation calls.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("solace.stage.duration",
		metric.WithDescription("Latency of a pipeline stage by stage name."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter("solace.turns",
		metric.WithDescription("Completed turns by modality and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("solace.provider.errors",
		metric.WithDescription("External capability errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.ArtifactsStored, err = m.Int64Counter("solace.artifacts.stored",
		metric.WithDescription("Synthesized reply artifacts written to the store."),
	); err != nil {
		return nil, err
	}
	if met.ArtifactsReaped, err = m.Int64Counter("solace.artifacts.reaped",
		metric.WithDescription("Artifacts removed by the retention sweep."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStage records one stage execution's wall time.
func (m *Metrics) RecordStage(ctx context.Context, stage string, elapsed time.Duration) {
	m.StageDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordTurn records a completed orchestrator invocation.
func (m *Metrics) RecordTurn(ctx context.Context, modality, outcome string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("modality", modality),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordProviderError records an external capability error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
