package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)

	m.Transition(ctx, "pending", "confirmed")
	m.Transition(ctx, "confirmed", "cancelled")
	m.Conflict(ctx, "request_booking")
	m.ReminderDispatched(ctx, "sms", "sent")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok, md.Name)
			for _, dp := range sum.DataPoints {
				totals[md.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["booking_transitions_total"])
	assert.Equal(t, int64(1), totals["booking_conflicts_total"])
	assert.Equal(t, int64(1), totals["reminders_dispatched_total"])
}
