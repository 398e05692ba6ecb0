package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(therapist, client uuid.UUID, date time.Time, start TimeOfDay, status SessionStatus) *Session {
	return &Session{
		ClientID:        client,
		TherapistID:     therapist,
		SessionTypeID:   uuid.New(),
		Status:          status,
		Mode:            ModeOnline,
		ScheduledDate:   DateOf(date),
		StartTime:       start,
		DurationMinutes: 60,
		Price:           150000,
	}
}

func TestMemory_SessionOverlapConstraint(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	therapist := uuid.New()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	first := testSession(therapist, uuid.New(), date, NewTimeOfDay(10, 0), StatusConfirmed)
	require.NoError(t, m.CreateSession(ctx, first))

	tests := []struct {
		name   string
		start  TimeOfDay
		status SessionStatus
		want   error
	}{
		{"overlapping busy session", NewTimeOfDay(10, 30), StatusScheduled, ErrConflict},
		{"same start busy session", NewTimeOfDay(10, 0), StatusConfirmed, ErrConflict},
		{"adjacent session", NewTimeOfDay(11, 0), StatusConfirmed, nil},
		{"pending does not occupy", NewTimeOfDay(10, 15), StatusPending, nil},
		{"cancelled does not occupy", NewTimeOfDay(10, 0), StatusCancelled, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession(therapist, uuid.New(), date, tt.start, tt.status)
			err := m.CreateSession(ctx, s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMemory_DuplicateOpenSession(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	therapist, client := uuid.New(), uuid.New()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	first := testSession(therapist, client, date, NewTimeOfDay(9, 0), StatusPending)
	require.NoError(t, m.CreateSession(ctx, first))
	err := m.CreateSession(ctx, testSession(therapist, client, date, NewTimeOfDay(9, 0), StatusPending))
	assert.ErrorIs(t, err, ErrDuplicate)

	first.Status = StatusCancelled
	require.NoError(t, m.UpdateSession(ctx, first))
	require.NoError(t, m.CreateSession(ctx, testSession(therapist, client, date, NewTimeOfDay(9, 0), StatusPending)))
}

func TestMemory_UpdateSessionKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := testSession(uuid.New(), uuid.New(), time.Now(), NewTimeOfDay(9, 0), StatusPending)
	require.NoError(t, m.CreateSession(ctx, s))
	created := s.CreatedAt

	s.Status = StatusConfirmed
	s.CreatedAt = time.Time{}
	require.NoError(t, m.UpdateSession(ctx, s))

	got, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, created, got.CreatedAt)

	_, err = m.GetSession(ctx, uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestMemory_ListSessionsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	therapist, client := uuid.New(), uuid.New()
	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	require.NoError(t, m.CreateSession(ctx, testSession(therapist, client, day2, NewTimeOfDay(9, 0), StatusConfirmed)))
	require.NoError(t, m.CreateSession(ctx, testSession(therapist, client, day1, NewTimeOfDay(15, 0), StatusCompleted)))
	require.NoError(t, m.CreateSession(ctx, testSession(therapist, client, day1, NewTimeOfDay(9, 0), StatusConfirmed)))
	require.NoError(t, m.CreateSession(ctx, testSession(uuid.New(), client, day1, NewTimeOfDay(9, 0), StatusConfirmed)))

	got, err := m.ListSessions(ctx, SessionFilter{TherapistID: &therapist})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, NewTimeOfDay(9, 0), got[0].StartTime)
	assert.True(t, got[0].ScheduledDate.Equal(day1))
	assert.True(t, got[2].ScheduledDate.Equal(day2))

	got, err = m.ListSessions(ctx, SessionFilter{TherapistID: &therapist, Newest: true})
	require.NoError(t, err)
	assert.True(t, got[0].ScheduledDate.Equal(day2))

	got, err = m.ListSessions(ctx, SessionFilter{
		TherapistID: &therapist,
		Statuses:    []SessionStatus{StatusConfirmed},
		DateFrom:    &day1,
		DateTo:      &day1,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = m.ListSessions(ctx, SessionFilter{ClientID: &client, Page: Page{Page: 2, PerPage: 3}})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	counts, err := m.CountSessionsByStatus(ctx, therapist)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StatusConfirmed])
	assert.Equal(t, 1, counts[StatusCompleted])
}

func TestMemory_WindowsUniqueAndOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	therapist := uuid.New()

	sunday := &AvailabilityWindow{TherapistID: therapist, DayOfWeek: Sunday, StartTime: NewTimeOfDay(9, 0), EndTime: NewTimeOfDay(12, 0), IsActive: true}
	monday := &AvailabilityWindow{TherapistID: therapist, DayOfWeek: Monday, StartTime: NewTimeOfDay(14, 0), EndTime: NewTimeOfDay(16, 0), IsActive: false}
	require.NoError(t, m.CreateWindow(ctx, sunday))
	require.NoError(t, m.CreateWindow(ctx, monday))

	dup := &AvailabilityWindow{TherapistID: therapist, DayOfWeek: Sunday, StartTime: NewTimeOfDay(9, 0), EndTime: NewTimeOfDay(10, 0)}
	assert.ErrorIs(t, m.CreateWindow(ctx, dup), ErrDuplicate)

	all, err := m.ListWindows(ctx, WindowFilter{TherapistID: therapist})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, Monday, all[0].DayOfWeek)

	active, err := m.ListWindows(ctx, WindowFilter{TherapistID: therapist, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, Sunday, active[0].DayOfWeek)

	require.NoError(t, m.DeleteWindow(ctx, sunday.ID))
	assert.ErrorIs(t, m.DeleteWindow(ctx, sunday.ID), ErrNotFound)
}

func TestMemory_DueReminders(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sessionID := uuid.New()

	due := &SessionReminder{SessionID: sessionID, Type: ReminderSMS, ScheduledTime: now.Add(-time.Minute)}
	future := &SessionReminder{SessionID: sessionID, Type: ReminderSMS, ScheduledTime: now.Add(time.Hour)}
	exhausted := &SessionReminder{SessionID: sessionID, Type: ReminderEmail, ScheduledTime: now.Add(-time.Hour), Attempts: 3}
	for _, r := range []*SessionReminder{due, future, exhausted} {
		require.NoError(t, m.CreateReminder(ctx, r))
	}

	got, err := m.ListDueReminders(ctx, now, 3, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)

	require.NoError(t, m.DeleteUnsentReminders(ctx, sessionID))
	all, err := m.ListReminders(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemory_WithTxSerializesOnKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	therapist := uuid.New()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	key := ScheduleLockKey(therapist, date)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithTx(ctx, []string{key, key}, func(tx Store) error {
				existing, err := tx.ListSessions(ctx, SessionFilter{TherapistID: &therapist, Statuses: BusyStatuses, Unpaged: true})
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return ErrConflict
				}
				return tx.CreateSession(ctx, testSession(therapist, uuid.New(), date, NewTimeOfDay(10, 0), StatusConfirmed))
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				booked++
			} else {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, workers-1, refused)
}

func TestScheduleLockKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-0000-4000-8000-000000000001")
	date := time.Date(2025, 3, 21, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "schedule:6f1c2b1e-0000-4000-8000-000000000001:2025-03-21", ScheduleLockKey(id, date))
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in         Page
		limit, off int
	}{
		{Page{}, DefaultPerPage, 0},
		{Page{Page: 3, PerPage: 10}, 10, 20},
		{Page{Page: 1, PerPage: 500}, DefaultPerPage, 0},
	}
	for _, tt := range tests {
		limit, off := tt.in.Normalize()
		assert.Equal(t, tt.limit, limit)
		assert.Equal(t, tt.off, off)
	}
}
