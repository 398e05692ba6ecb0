package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSubject(t *testing.T) {
	id := uuid.MustParse("0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
	assert.Equal(t, "sessions.confirmed.0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", SessionSubject(EventConfirmed, id))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	require.NoError(t, r.Publish(ctx, SubjectRefundRequested, RefundRequested{Amount: 75000, Percent: 50, Policy: "partial"}))
	require.NoError(t, Nop{}.Publish(ctx, "ignored", nil))

	assert.Equal(t, []string{SubjectRefundRequested}, r.Subjects())

	var got RefundRequested
	require.NoError(t, r.Messages()[0].Decode(&got))
	assert.Equal(t, int64(75000), got.Amount)
	assert.Equal(t, "partial", got.Policy)
}
