package pipeline

import (
	"context"
	"errors"
	"testing"

	"mealresolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type telemetry struct {
	reader *sdkmetric.ManualReader
	spans  *tracetest.SpanRecorder
	mp     *sdkmetric.MeterProvider
	tp     *sdktrace.TracerProvider
}

func newTelemetry() *telemetry {
	reader := sdkmetric.NewManualReader()
	spans := tracetest.NewSpanRecorder()
	return &telemetry{
		reader: reader,
		spans:  spans,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		tp:     sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
	}
}

func (tel *telemetry) resolver(t *testing.T, fe mealresolver.TextExtractor, fs mealresolver.NutrientSource) *InstrumentedResolver {
	t.Helper()
	ir, err := NewInstrumentedResolver(fe, fs, Options{}, tel.tp.Tracer(mealresolver.TracerNamePipeline), tel.mp.Meter(mealresolver.TracerNamePipeline))
	require.NoError(t, err)
	return ir
}

func (tel *telemetry) collect(t *testing.T) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counter(t *testing.T, data map[string]metricdata.Aggregation, name string) int64 {
	t.Helper()
	agg, ok := data[name]
	if !ok {
		return 0
	}
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func histogramCount(t *testing.T, data map[string]metricdata.Aggregation, name string) uint64 {
	t.Helper()
	agg, ok := data[name]
	if !ok {
		return 0
	}
	h, ok := agg.(metricdata.Histogram[float64])
	require.True(t, ok, "%s is not a float64 histogram", name)

	var total uint64
	for _, dp := range h.DataPoints {
		total += dp.Count
	}
	return total
}

func TestInstrumentedResolver_Success(t *testing.T) {
	tel := newTelemetry()
	fe := &fakeExtractor{ex: mealresolver.Extraction{
		Items: []mealresolver.ExtractedItem{
			{Name: "egg", Grams: 100},
			{Name: "", Grams: 10},
			{Name: "banana", Grams: 118},
			{Name: "mystery", Grams: 20},
		},
	}}
	fs := &fakeSource{
		matches: map[string]mealresolver.NutrientMatch{"egg": eggMatch(), "banana": bananaMatch()},
		errs:    map[string]error{"mystery": errors.New("boom")},
	}

	res, err := tel.resolver(t, fe, fs).Resolve(context.Background(), "egg, banana, mystery")
	require.NoError(t, err)
	assert.Equal(t, 248, res.Calories)

	data := tel.collect(t)
	assert.Equal(t, int64(1), counter(t, data, "meal_resolutions_total"))
	assert.Equal(t, int64(0), counter(t, data, "meal_resolutions_failed_total"))
	assert.Equal(t, int64(4), counter(t, data, "items_extracted_total"))
	assert.Equal(t, int64(1), counter(t, data, "items_dropped_total"))
	assert.Equal(t, int64(3), counter(t, data, "lookups_total"))
	assert.Equal(t, int64(1), counter(t, data, "lookup_misses_total"))
	assert.Equal(t, int64(0), counter(t, data, "aggregation_fallbacks_total"))
	assert.Equal(t, uint64(1), histogramCount(t, data, "resolution_duration_seconds"))
	assert.Equal(t, uint64(3), histogramCount(t, data, "lookup_duration_seconds"))

	var names []string
	for _, s := range tel.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "InstrumentedResolver.Resolve")
	assert.Contains(t, names, "NutrientSource.Match")
}

func TestInstrumentedResolver_FallbackAndDegraded(t *testing.T) {
	tel := newTelemetry()
	ir := tel.resolver(t,
		&fakeExtractor{ex: mealresolver.Extraction{
			Items:     []mealresolver.ExtractedItem{{Name: "mystery energy bar", Grams: 40}},
			Estimates: mealresolver.RoughEstimate{Calories: 180},
		}},
		&fakeSource{},
	)
	_, err := ir.Resolve(context.Background(), "mystery energy bar")
	require.NoError(t, err)

	ir = tel.resolver(t, &fakeExtractor{ex: mealresolver.Extraction{Items: []mealresolver.ExtractedItem{}, Degraded: true}}, &fakeSource{})
	_, err = ir.Resolve(context.Background(), "???")
	require.NoError(t, err)

	data := tel.collect(t)
	assert.Equal(t, int64(2), counter(t, data, "meal_resolutions_total"))
	assert.Equal(t, int64(1), counter(t, data, "aggregation_fallbacks_total"))
	assert.Equal(t, int64(1), counter(t, data, "extractions_degraded_total"))
	assert.Equal(t, int64(1), counter(t, data, "lookup_misses_total"))
}

func TestInstrumentedResolver_Failures(t *testing.T) {
	tel := newTelemetry()

	_, err := tel.resolver(t, &fakeExtractor{}, &fakeSource{}).Resolve(context.Background(), " ")
	assert.ErrorIs(t, err, mealresolver.ErrInvalidInput)

	fs := &fakeSource{credErr: mealresolver.MissingCredential("USDA_FDC_API_KEY")}
	fe := &fakeExtractor{}
	_, err = tel.resolver(t, fe, fs).Resolve(context.Background(), "toast")
	assert.ErrorIs(t, err, mealresolver.ErrConfiguration)
	assert.Zero(t, fe.calls.Load(), "credential preflight must see through the traced source")

	data := tel.collect(t)
	assert.Equal(t, int64(2), counter(t, data, "meal_resolutions_total"))
	assert.Equal(t, int64(2), counter(t, data, "meal_resolutions_failed_total"))
	assert.Equal(t, int64(0), counter(t, data, "lookups_total"))

	for _, s := range tel.spans.Ended() {
		if s.Name() == "InstrumentedResolver.Resolve" {
			assert.Equal(t, codes.Error, s.Status().Code)
		}
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "invalid_input", failureReason(mealresolver.ErrInvalidInput))
	assert.Equal(t, "configuration", failureReason(mealresolver.MissingCredential("X")))
	assert.Equal(t, "unexpected", failureReason(errors.New("x")))
}
