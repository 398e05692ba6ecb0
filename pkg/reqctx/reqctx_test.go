package reqctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

type actor struct {
	id   uuid.UUID
	role string
}

func (a actor) GetUserID() uuid.UUID { return a.id }
func (a actor) GetRole() string { return a.role }

func TestActor(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAuthenticated(ctx))
	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, RoleFromContext(ctx))

	id := uuid.New()
	ctx = WithActor(ctx, actor{id: id, role: "therapist"})
	assert.True(t, IsAuthenticated(ctx))
	got, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, "therapist", RoleFromContext(ctx))
}

func TestRequestMeta(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "rid-1"})
	assert.Equal(t, "rid-1", RequestIDFromContext(ctx))
}

func TestTraceFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	info := NewTraceInfo()
	assert.Len(t, info.TraceID, 32)
	assert.Len(t, info.SpanID, 16)
	ctx = WithTrace(ctx, info)
	assert.Equal(t, info.TraceID, TraceIDFromContext(ctx))

	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	ctx = trace.ContextWithSpanContext(ctx, sc)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(ctx))
}
