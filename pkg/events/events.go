// Package events publishes booking domain events on NATS.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectRefundRequested = "session.refund.requested"
	SubjectReminderPush    = "sessions.reminder.push"
)

// Session lifecycle event names used in sessions.<event>.<id> subjects.
const (
	EventRequested   = "requested"
	EventScheduled   = "scheduled"
	EventConfirmed   = "confirmed"
	EventStarted     = "started"
	EventCompleted   = "completed"
	EventCancelled   = "cancelled"
	EventNoShow      = "no_show"
	EventRescheduled = "rescheduled"
	EventRated       = "rated"
	EventPaid        = "paid"
)

// SessionSubject returns sessions.<event>.<id>.
func SessionSubject(event string, sessionID uuid.UUID) string {
	return fmt.Sprintf("sessions.%s.%s", event, sessionID)
}

type SessionEvent struct {
	Event       string    `json:"event"`
	SessionID   uuid.UUID `json:"session_id"`
	ClientID    uuid.UUID `json:"client_id"`
	TherapistID uuid.UUID `json:"therapist_id"`
	Status      string    `json:"status"`
	StartsAt    time.Time `json:"starts_at"`
	At          time.Time `json:"at"`
}

type RefundRequested struct {
	SessionID      uuid.UUID `json:"session_id"`
	CancellationID uuid.UUID `json:"cancellation_id"`
	ClientID       uuid.UUID `json:"client_id"`
	Amount         int64     `json:"amount"`
	Percent        int       `json:"percent"`
	Policy         string    `json:"policy"`
	At             time.Time `json:"at"`
}

type ReminderPush struct {
	ReminderID uuid.UUID `json:"reminder_id"`
	SessionID  uuid.UUID `json:"session_id"`
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// NATSPublisher encodes payloads as JSON and publishes them on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNATS(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.nc.Publish(p.prefix+subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Message is a payload captured by Recorder.
type Message struct {
	Subject string
	Data    []byte
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Subject: subject, Data: data})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Subjects lists the subjects published so far, in order.
func (r *Recorder) Subjects() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}

// Decode unmarshals a recorded payload.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}
