package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// CounterValue sums every data point of the named Int64 counter.
func CounterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m := NewMetricsFrom(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	ctx := context.Background()

	m.Operation(ctx, "claim", "ok", time.Now())
	m.Operation(ctx, "claim", "conflict", time.Now())
	m.CompensationFailed(ctx, "approve", "claim")
	m.PaymentFailed(ctx, "approve")
	m.PaymentCreated(ctx, "reconcile")

	assert.Equal(t, int64(2), CounterValue(t, reader, "devbounty.lifecycle.operations"))
	assert.Equal(t, int64(1), CounterValue(t, reader, "devbounty.compensation.failures"))
	assert.Equal(t, int64(1), CounterValue(t, reader, "devbounty.payment.failures"))
	assert.Equal(t, int64(1), CounterValue(t, reader, "devbounty.payment.created"))
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false, ServiceName: "test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	// instruments from the no-op provider must not panic
	NewMetrics().CompensationFailed(context.Background(), "op", "step")
}
