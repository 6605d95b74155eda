package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mealresolver"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedResolver is a Resolver that records spans and resolution metrics.
type InstrumentedResolver struct {
	resolver *Resolver
	tracer   trace.Tracer
	metrics  *resolverMetrics
}

type resolverMetrics struct {
	resolutions       metric.Int64Counter
	resolutionsFailed metric.Int64Counter
	degraded          metric.Int64Counter
	itemsExtracted    metric.Int64Counter
	itemsDropped      metric.Int64Counter
	lookups           metric.Int64Counter
	lookupMisses      metric.Int64Counter
	fallbacks         metric.Int64Counter
	resolutionTime    metric.Float64Histogram
	lookupTime        metric.Float64Histogram
}

func newResolverMetrics(meter metric.Meter) (*resolverMetrics, error) {
	var m resolverMetrics
	var errs [10]error

	m.resolutions, errs[0] = meter.Int64Counter("meal_resolutions_total",
		metric.WithDescription("Total number of meal resolutions started"))
	m.resolutionsFailed, errs[1] = meter.Int64Counter("meal_resolutions_failed_total",
		metric.WithDescription("Total number of meal resolutions that returned an error"))
	m.degraded, errs[2] = meter.Int64Counter("extractions_degraded_total",
		metric.WithDescription("Total number of extractions whose model output could not be parsed"))
	m.itemsExtracted, errs[3] = meter.Int64Counter("items_extracted_total",
		metric.WithDescription("Total number of items returned by the extractor"))
	m.itemsDropped, errs[4] = meter.Int64Counter("items_dropped_total",
		metric.WithDescription("Total number of extracted items dropped for a blank name or non-positive grams"))
	m.lookups, errs[5] = meter.Int64Counter("lookups_total",
		metric.WithDescription("Total number of nutrient database lookups"))
	m.lookupMisses, errs[6] = meter.Int64Counter("lookup_misses_total",
		metric.WithDescription("Total number of lookups that failed or found no match"))
	m.fallbacks, errs[7] = meter.Int64Counter("aggregation_fallbacks_total",
		metric.WithDescription("Total number of resolutions whose totals came from the model estimate"))
	m.resolutionTime, errs[8] = meter.Float64Histogram("resolution_duration_seconds",
		metric.WithDescription("Duration of a meal resolution in seconds"), metric.WithUnit("s"))
	m.lookupTime, errs[9] = meter.Float64Histogram("lookup_duration_seconds",
		metric.WithDescription("Duration of a single nutrient lookup in seconds"), metric.WithUnit("s"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewInstrumentedResolver wraps the source so every lookup is timed and traced.
func NewInstrumentedResolver(extractor mealresolver.TextExtractor, source mealresolver.NutrientSource, opts Options, tracer trace.Tracer, meter metric.Meter) (*InstrumentedResolver, error) {
	m, err := newResolverMetrics(meter)
	if err != nil {
		return nil, err
	}
	ts := &tracedSource{source: source, tracer: tracer, metrics: m}
	return &InstrumentedResolver{
		resolver: NewResolver(extractor, ts, opts),
		tracer:   tracer,
		metrics:  m,
	}, nil
}

// Resolve runs one resolution with full instrumentation.
func (ir *InstrumentedResolver) Resolve(ctx context.Context, text string) (mealresolver.MealResult, error) {
	ctx, span := ir.tracer.Start(ctx, "InstrumentedResolver.Resolve")
	defer span.End()

	m := ir.metrics
	m.resolutions.Add(ctx, 1)
	start := time.Now()

	res, run, err := ir.resolver.resolve(ctx, text)

	m.resolutionTime.Record(ctx, time.Since(start).Seconds())
	m.itemsExtracted.Add(ctx, int64(run.Extracted))
	m.itemsDropped.Add(ctx, int64(run.Dropped))
	if run.Degraded {
		m.degraded.Add(ctx, 1)
	}
	if run.Fallback {
		m.fallbacks.Add(ctx, 1)
	}

	span.SetAttributes(
		attribute.String("request_id", run.RequestID),
		attribute.Int("items_extracted", run.Extracted),
		attribute.Int("items_dropped", run.Dropped),
		attribute.Bool("extraction_degraded", run.Degraded),
	)

	if err != nil {
		m.resolutionsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return res, err
	}

	span.SetAttributes(
		attribute.Int("items_resolved", len(res.Items)),
		attribute.Int("calories", res.Calories),
		attribute.Bool("fallback", run.Fallback),
	)
	span.SetStatus(codes.Ok, "")

	slog.Info("PIPELINE: Instrumented resolution recorded", "request_id", run.RequestID, "duration_ms", run.DurationMs)
	return res, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, mealresolver.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, mealresolver.ErrConfiguration):
		return "configuration"
	default:
		return "unexpected"
	}
}

// tracedSource times and counts lookups against the wrapped source.
type tracedSource struct {
	source  mealresolver.NutrientSource
	tracer  trace.Tracer
	metrics *resolverMetrics
}

func (s *tracedSource) Match(ctx context.Context, foodName string) (mealresolver.NutrientMatch, error) {
	ctx, span := s.tracer.Start(ctx, "NutrientSource.Match", trace.WithAttributes(attribute.String("food", foodName)))
	defer span.End()

	start := time.Now()
	match, err := s.source.Match(ctx, foodName)

	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	case !match.Found():
		outcome = "miss"
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.metrics.lookups.Add(ctx, 1, attrs)
	s.metrics.lookupTime.Record(ctx, time.Since(start).Seconds(), attrs)
	if outcome != "hit" {
		s.metrics.lookupMisses.Add(ctx, 1, attrs)
	}
	span.SetAttributes(attribute.String("outcome", outcome))

	return match, err
}

// CheckCredentials keeps the wrapped source's preflight visible to the resolver.
func (s *tracedSource) CheckCredentials() error {
	if cc, ok := s.source.(mealresolver.CredentialChecker); ok {
		return cc.CheckCredentials()
	}
	return nil
}
