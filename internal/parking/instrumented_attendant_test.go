package parking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

type testTelemetry struct {
	provider *parking.TelemetryProvider
	reader   *sdkmetric.ManualReader
	spans    *tracetest.SpanRecorder
}

func newTestTelemetry(t *testing.T) *testTelemetry {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	spans := tracetest.NewSpanRecorder()

	provider := parking.NewTelemetryProviderFromProviders("parking-test",
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	)
	t.Cleanup(func() {
		require.NoError(t, provider.Shutdown(context.Background()))
	})

	return &testTelemetry{provider: provider, reader: reader, spans: spans}
}

// sumFor adds up the data points of an int64 sum whose attributes include
// every attribute in match.
func (tt *testTelemetry) sumFor(t *testing.T, name string, match ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tt.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAttributes(dp.Attributes, match) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttributes(set attribute.Set, match []attribute.KeyValue) bool {
	for _, kv := range match {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func (tt *testTelemetry) spanNames() []string {
	var names []string
	for _, s := range tt.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (tt *testTelemetry) endedSpans(name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range tt.spans.Ended() {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func hasEvent(s sdktrace.ReadOnlySpan, name string) bool {
	for _, e := range s.Events() {
		if e.Name == name {
			return true
		}
	}
	return false
}

func newInstrumentedAttendant(t *testing.T, clock *fakeClock) (*parking.InstrumentedAttendant, *testTelemetry) {
	t.Helper()
	telemetry := newTestTelemetry(t)
	attendant, _ := newAttendant(t, clock)
	ia, err := parking.NewInstrumentedAttendant(attendant, telemetry.provider)
	require.NoError(t, err)
	return ia, telemetry
}

func TestInstrumentedAttendantIntegration(t *testing.T) {
	clock := newClock()
	ia, telemetry := newInstrumentedAttendant(t, clock)
	ctx := context.Background()

	_, err := ia.Enter(ctx, car(t, "BCD787"))
	require.NoError(t, err)

	status, err := ia.Status(ctx)
	require.NoError(t, err)
	assert.Len(t, status.Active, 1)

	clock.Advance(3 * time.Hour)

	_, amount, err := ia.Quote(ctx, "BCD787")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), amount)

	rec, err := ia.Exit(ctx, "BCD787")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), *rec.AmountCharged)

	assert.Equal(t, int64(1), telemetry.sumFor(t, "parking_entries_total", attribute.String("status", "success")))
	assert.Equal(t, int64(1), telemetry.sumFor(t, "parking_exits_total", attribute.String("status", "success")))
	assert.Equal(t, int64(3000), telemetry.sumFor(t, "parking_revenue_total", attribute.String("category", "car")))
	assert.Equal(t, int64(0), telemetry.sumFor(t, "parking_occupancy", attribute.String("category", "car")))

	assert.Subset(t, telemetry.spanNames(), []string{"parking.enter", "parking.status", "parking.quote", "parking.exit"})
}

func TestInstrumentedAttendantRecordsRejections(t *testing.T) {
	clock := newClock()
	// Move to Wednesday so class A plates are restricted.
	clock.Advance(48 * time.Hour)
	ia, telemetry := newInstrumentedAttendant(t, clock)
	ctx := context.Background()

	_, err := ia.Enter(ctx, car(t, "AAA-123"))
	require.Error(t, err)

	_, err = ia.Enter(ctx, nil)
	require.Error(t, err)

	_, err = ia.Exit(ctx, "UNKNOWN")
	require.ErrorIs(t, err, parking.ErrNotFound)

	assert.Equal(t, int64(2), telemetry.sumFor(t, "parking_entries_total", attribute.String("status", "restricted")))
	assert.Equal(t, int64(1), telemetry.sumFor(t, "parking_exits_total", attribute.String("status", "not_found")))
	assert.Equal(t, int64(0), telemetry.sumFor(t, "parking_occupancy"))
}

func TestInstrumentedQuoteSeparatesFailures(t *testing.T) {
	clock := newClock()
	ia, telemetry := newInstrumentedAttendant(t, clock)
	ctx := context.Background()

	_, _, err := ia.Quote(ctx, "UNKNOWN")
	require.ErrorIs(t, err, parking.ErrNotFound)

	_, err = ia.Enter(ctx, car(t, "BCD787"))
	require.NoError(t, err)

	// A clock that runs backwards makes the stay interval invalid.
	clock.Advance(-time.Hour)
	_, _, err = ia.Quote(ctx, "BCD787")
	var interval *parking.InvalidIntervalError
	require.ErrorAs(t, err, &interval)

	quotes := telemetry.endedSpans("parking.quote")
	require.Len(t, quotes, 2)

	assert.Equal(t, codes.Unset, quotes[0].Status().Code)
	assert.True(t, hasEvent(quotes[0], "vehicle_not_found"))

	assert.Equal(t, codes.Error, quotes[1].Status().Code)
	assert.True(t, hasEvent(quotes[1], "exception"))
	assert.False(t, hasEvent(quotes[1], "vehicle_not_found"))
}
