package observability

import (
	"context"
	"time"
	"workload/internal/bindings"
	"workload/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedProjector wraps a bindings.Projector with OpenTelemetry tracing
// and metrics instrumentation.
type InstrumentedProjector struct {
	inner    bindings.Projector
	root     string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	count    metric.Int64Histogram
}

// NewInstrumentedProjector creates a projector wrapper that records a span,
// a latency histogram, an error counter and the number of bindings found for
// every Collect call. Instruments come from the global providers, so Setup
// must run first for them to export anywhere.
func NewInstrumentedProjector(inner bindings.Projector, root string) (*InstrumentedProjector, error) {
	tracer := otel.Tracer("workload/bindings")
	meter := otel.Meter("workload/bindings")

	duration, err := meter.Float64Histogram(
		"bindings.projection.duration",
		metric.WithDescription("Duration of binding tree projections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"bindings.projection.errors",
		metric.WithDescription("Number of binding tree projections that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	count, err := meter.Int64Histogram(
		"bindings.projection.count",
		metric.WithDescription("Number of bindings found per projection"),
		metric.WithUnit("{binding}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedProjector{
		inner:    inner,
		root:     root,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
		count:    count,
	}, nil
}

func (p *InstrumentedProjector) Collect(ctx context.Context) ([]models.Binding, error) {
	ctx, span := p.tracer.Start(ctx, "bindings.Collect",
		trace.WithAttributes(attribute.String("bindings.root", p.root)),
	)
	defer span.End()

	start := time.Now()
	result, err := p.inner.Collect(ctx)
	attrs := metric.WithAttributes(attribute.String("root", p.root))

	p.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		p.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p.count.Record(ctx, int64(len(result)), attrs)
	span.SetAttributes(attribute.Int("bindings.count", len(result)))
	span.SetStatus(codes.Ok, "")
	return result, nil
}
