package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the domain counters of the booking engine.
type Metrics struct {
	transitions metric.Int64Counter
	conflicts   metric.Int64Counter
	reminders   metric.Int64Counter
}

// NewMetrics registers the counters on mp. A nil mp means the global provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(tracerName)

	transitions, err := meter.Int64Counter(
		"booking_transitions_total",
		metric.WithDescription("Session status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter(
		"booking_conflicts_total",
		metric.WithDescription("Booking attempts rejected because the slot was taken"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}
	reminders, err := meter.Int64Counter(
		"reminders_dispatched_total",
		metric.WithDescription("Reminder delivery attempts by type and outcome"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{transitions: transitions, conflicts: conflicts, reminders: reminders}, nil
}

// Transition counts a status change. from is empty for created sessions.
func (m *Metrics) Transition(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) Conflict(ctx context.Context, op string) {
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) ReminderDispatched(ctx context.Context, reminderType, outcome string) {
	m.reminders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", reminderType),
		attribute.String("outcome", outcome),
	))
}
