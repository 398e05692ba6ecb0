package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/repo/repotest"
)

type recordingInvalidator struct {
	calls []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, therapistID uuid.UUID) {
	r.calls = append(r.calls, therapistID)
}

func setup(t *testing.T) (Service, *repo.Memory, *repo.Therapist, *recordingInvalidator) {
	t.Helper()
	store := repo.NewMemory()
	th := repotest.Therapist(t, store, "Dr. Window")
	inv := &recordingInvalidator{}
	return New(store, inv), store, th, inv
}

func tod(h, m int) repo.TimeOfDay { return repo.NewTimeOfDay(h, m) }

func TestAddWindow(t *testing.T) {
	ctx := context.Background()
	svc, _, th, inv := setup(t)

	tests := []struct {
		name       string
		day        repo.Weekday
		start, end repo.TimeOfDay
		therapist  uuid.UUID
		want       error
	}{
		{"valid", repo.Monday, tod(9, 0), tod(12, 0), th.ID, nil},
		{"overlap allowed", repo.Monday, tod(10, 0), tod(13, 0), th.ID, nil},
		{"start equals end", repo.Monday, tod(9, 0), tod(9, 0), th.ID, ErrInvalidRange},
		{"start after end", repo.Monday, tod(14, 0), tod(13, 0), th.ID, ErrInvalidRange},
		{"end past midnight", repo.Monday, tod(23, 0), tod(24, 30), th.ID, ErrInvalidRange},
		{"bad weekday", repo.Weekday("funday"), tod(9, 0), tod(10, 0), th.ID, ErrInvalidWeekday},
		{"duplicate start", repo.Monday, tod(9, 0), tod(11, 0), th.ID, ErrDuplicateWindow},
		{"unknown therapist", repo.Monday, tod(9, 0), tod(10, 0), uuid.New(), ErrTherapistNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := svc.AddWindow(ctx, AddWindowRequest{
				TherapistID: tt.therapist,
				DayOfWeek:   tt.day,
				Start:       tt.start,
				End:         tt.end,
			})
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, w.ID)
			assert.True(t, w.IsActive)
		})
	}

	assert.Equal(t, []uuid.UUID{th.ID, th.ID}, inv.calls)
	assert.Equal(t, errs.KindInvalidRange, errs.KindOf(ErrInvalidRange))
}

func TestDeactivateActivate(t *testing.T) {
	ctx := context.Background()
	svc, _, th, inv := setup(t)

	w, err := svc.AddWindow(ctx, AddWindowRequest{TherapistID: th.ID, DayOfWeek: repo.Sunday, Start: tod(9, 0), End: tod(10, 0)})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateWindow(ctx, w.ID))
	active, err := svc.ListWindows(ctx, repo.WindowFilter{TherapistID: th.ID, ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListWindows(ctx, repo.WindowFilter{TherapistID: th.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	// no-op does not invalidate again
	require.NoError(t, svc.DeactivateWindow(ctx, w.ID))
	assert.Len(t, inv.calls, 2)

	require.NoError(t, svc.ActivateWindow(ctx, w.ID))
	got, err := svc.GetWindow(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	assert.ErrorIs(t, svc.DeactivateWindow(ctx, uuid.New()), ErrWindowNotFound)
}

func TestUpdateWindow(t *testing.T) {
	ctx := context.Background()
	svc, _, th, _ := setup(t)

	w, err := svc.AddWindow(ctx, AddWindowRequest{TherapistID: th.ID, DayOfWeek: repo.Monday, Start: tod(9, 0), End: tod(12, 0)})
	require.NoError(t, err)

	end := tod(16, 0)
	day := repo.Wednesday
	got, err := svc.UpdateWindow(ctx, w.ID, UpdateWindowRequest{End: &end, DayOfWeek: &day})
	require.NoError(t, err)
	assert.Equal(t, repo.Wednesday, got.DayOfWeek)
	assert.Equal(t, tod(9, 0), got.StartTime)
	assert.Equal(t, tod(16, 0), got.EndTime)

	bad := tod(8, 0)
	_, err = svc.UpdateWindow(ctx, w.ID, UpdateWindowRequest{End: &bad})
	assert.ErrorIs(t, err, ErrInvalidRange)

	stored, err := svc.GetWindow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, tod(16, 0), stored.EndTime, "rejected update leaves window unchanged")
}

func TestDeleteWindow(t *testing.T) {
	ctx := context.Background()
	svc, _, th, _ := setup(t)

	w, err := svc.AddWindow(ctx, AddWindowRequest{TherapistID: th.ID, DayOfWeek: repo.Monday, Start: tod(9, 0), End: tod(12, 0)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWindow(ctx, w.ID))
	assert.ErrorIs(t, svc.DeleteWindow(ctx, w.ID), ErrWindowNotFound)
}

func TestListWindows(t *testing.T) {
	ctx := context.Background()
	svc, _, th, _ := setup(t)

	for _, req := range []AddWindowRequest{
		{TherapistID: th.ID, DayOfWeek: repo.Friday, Start: tod(9, 0), End: tod(10, 0)},
		{TherapistID: th.ID, DayOfWeek: repo.Monday, Start: tod(14, 0), End: tod(16, 0)},
		{TherapistID: th.ID, DayOfWeek: repo.Monday, Start: tod(9, 0), End: tod(12, 0)},
	} {
		_, err := svc.AddWindow(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.ListWindows(ctx, repo.WindowFilter{TherapistID: th.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, repo.Monday, all[0].DayOfWeek)
	assert.Equal(t, tod(9, 0), all[0].StartTime)
	assert.Equal(t, repo.Friday, all[2].DayOfWeek)

	monday := repo.Monday
	mondays, err := svc.ListWindows(ctx, repo.WindowFilter{TherapistID: th.ID, DayOfWeek: &monday})
	require.NoError(t, err)
	assert.Len(t, mondays, 2)

	_, err = svc.ListWindows(ctx, repo.WindowFilter{TherapistID: uuid.New()})
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}
