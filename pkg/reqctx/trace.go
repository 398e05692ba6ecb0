package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo is the trace context of a request. It is filled from the active
// OpenTelemetry span when there is one, otherwise from generated ids.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

func WithTrace(ctx context.Context, t *TraceInfo) context.Context {
	return context.WithValue(ctx, keyTrace, t)
}

// TraceFromContext prefers a valid OpenTelemetry span over stored info.
func TraceFromContext(ctx context.Context) (*TraceInfo, bool) {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return &TraceInfo{
			TraceID: sc.TraceID().String(),
			SpanID:  sc.SpanID().String(),
			Sampled: sc.IsSampled(),
		}, true
	}
	t, ok := ctx.Value(keyTrace).(*TraceInfo)
	return t, ok && t != nil
}

func TraceIDFromContext(ctx context.Context) string {
	if t, ok := TraceFromContext(ctx); ok {
		return t.TraceID
	}
	return ""
}

// NewTraceInfo returns random W3C-sized ids for requests without a span.
func NewTraceInfo() *TraceInfo {
	return &TraceInfo{TraceID: randomHex(16), SpanID: randomHex(8), Sampled: true}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
