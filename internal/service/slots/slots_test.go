package slots

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/repo/repotest"
	"github.com/Alijeyrad/simorq_sessions/pkg/redis"
)

// 2024-05-06 is a Monday.
var monday = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func schedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{Timezone: "Asia/Tehran", SlotMinutes: 60, SlotCacheTTLSec: 60}
}

func labels(list []TimeSlot) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Label)
	}
	return out
}

func book(t *testing.T, store repo.Store, therapistID uuid.UUID, start string, minutes int, status repo.SessionStatus) *repo.Session {
	t.Helper()
	tod, err := repo.ParseTimeOfDay(start)
	require.NoError(t, err)
	s := &repo.Session{
		ClientID:        uuid.New(),
		TherapistID:     therapistID,
		SessionTypeID:   uuid.New(),
		Status:          status,
		Mode:            repo.ModeInPerson,
		ScheduledDate:   monday,
		StartTime:       tod,
		DurationMinutes: minutes,
	}
	require.NoError(t, store.CreateSession(context.Background(), s))
	return s
}

func TestGetAvailableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("overlapping windows are merged", func(t *testing.T) {
		store := repo.NewMemory()
		th := repotest.Therapist(t, store, "Dr. A")
		repotest.Window(t, store, th.ID, repo.Monday, "09:00", "11:00")
		repotest.Window(t, store, th.ID, repo.Monday, "10:00", "12:00")

		got, err := New(store, nil, schedulingConfig()).GetAvailableSlots(ctx, th.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "10:00", "11:00"}, labels(got))
		assert.Equal(t, 9, got[0].Hour)
		assert.Equal(t, repo.NewTimeOfDay(10, 0), got[0].End)
	})

	t.Run("busy sessions are subtracted", func(t *testing.T) {
		store := repo.NewMemory()
		th := repotest.Therapist(t, store, "Dr. B")
		repotest.Window(t, store, th.ID, repo.Monday, "09:00", "12:00")
		book(t, store, th.ID, "10:00", 60, repo.StatusConfirmed)
		book(t, store, th.ID, "11:00", 60, repo.StatusPending)
		book(t, store, th.ID, "09:00", 60, repo.StatusCancelled)

		got, err := New(store, nil, schedulingConfig()).GetAvailableSlots(ctx, th.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "11:00"}, labels(got))
	})

	t.Run("partial remainder dropped", func(t *testing.T) {
		store := repo.NewMemory()
		th := repotest.Therapist(t, store, "Dr. C")
		repotest.Window(t, store, th.ID, repo.Monday, "09:00", "12:00")
		book(t, store, th.ID, "10:30", 60, repo.StatusScheduled)

		got, err := New(store, nil, schedulingConfig()).GetAvailableSlots(ctx, th.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00"}, labels(got))
	})

	t.Run("inactive windows and other weekdays ignored", func(t *testing.T) {
		store := repo.NewMemory()
		th := repotest.Therapist(t, store, "Dr. D")
		w := repotest.Window(t, store, th.ID, repo.Monday, "09:00", "10:00")
		w.IsActive = false
		require.NoError(t, store.UpdateWindow(ctx, w))
		repotest.Window(t, store, th.ID, repo.Tuesday, "09:00", "10:00")

		got, err := New(store, nil, schedulingConfig()).GetAvailableSlots(ctx, th.ID, monday)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown therapist", func(t *testing.T) {
		_, err := New(repo.NewMemory(), nil, schedulingConfig()).GetAvailableSlots(ctx, uuid.New(), monday)
		assert.ErrorIs(t, err, ErrTherapistNotFound)
		assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	})

	t.Run("past dates are not rejected", func(t *testing.T) {
		store := repo.NewMemory()
		th := repotest.Therapist(t, store, "Dr. E")
		repotest.Window(t, store, th.ID, repo.Monday, "09:00", "10:00")

		got, err := New(store, nil, schedulingConfig()).GetAvailableSlots(ctx, th.ID, monday.AddDate(0, 0, -364))
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00"}, labels(got))
	})
}

func TestGetAvailableSlots_Cache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repo.NewMemory()
	th := repotest.Therapist(t, store, "Dr. Cache")
	repotest.Window(t, store, th.ID, repo.Monday, "09:00", "11:00")

	svc := New(store, redis.NewCache(rdb, "test:"), schedulingConfig())

	first, err := svc.GetAvailableSlots(ctx, th.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, labels(first))
	assert.True(t, mr.Exists("test:"+cacheKey(th.ID, monday)))

	// Stale until invalidated.
	book(t, store, th.ID, "09:00", 60, repo.StatusConfirmed)
	cached, err := svc.GetAvailableSlots(ctx, th.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	svc.Invalidate(ctx, th.ID)
	fresh, err := svc.GetAvailableSlots(ctx, th.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, labels(fresh))
}

func TestGetDay(t *testing.T) {
	store := repo.NewMemory()
	th := repotest.Therapist(t, store, "Dr. Day")
	repotest.Window(t, store, th.ID, repo.Monday, "16:00", "18:00")

	day, err := New(store, nil, schedulingConfig()).GetDay(context.Background(), th.ID, monday.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", day.Date)
	assert.Equal(t, "1403/02/17", day.JalaliDate)
	assert.Equal(t, "monday", day.Weekday)
	assert.Len(t, day.Slots, 2)
}

func TestIsFree(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	th := repotest.Therapist(t, store, "Dr. Free")
	repotest.Window(t, store, th.ID, repo.Monday, "09:00", "12:00")
	existing := book(t, store, th.ID, "10:00", 60, repo.StatusConfirmed)

	tests := []struct {
		name    string
		start   string
		minutes int
		exclude uuid.UUID
		want    bool
	}{
		{"free hour", "09:00", 60, uuid.Nil, true},
		{"overlaps booking", "10:30", 60, uuid.Nil, false},
		{"adjacent after booking", "11:00", 60, uuid.Nil, true},
		{"off-grid fits", "09:15", 45, uuid.Nil, true},
		{"past window end", "11:30", 60, uuid.Nil, false},
		{"own slot when excluded", "10:30", 60, existing.ID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := repo.ParseTimeOfDay(tt.start)
			require.NoError(t, err)
			got, err := IsFree(ctx, store, th.ID, monday, Interval{Start: start, End: start + repo.TimeOfDay(tt.minutes)}, tt.exclude, 60)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, err := New(store, nil, schedulingConfig()).IsFree(ctx, th.ID, monday, repo.NewTimeOfDay(9, 0), 60)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsFree_DroppedRemainder(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	th := repotest.Therapist(t, store, "Dr. Short")
	repotest.Window(t, store, th.ID, repo.Monday, "09:00", "11:30")
	svc := New(store, nil, schedulingConfig())

	list, err := svc.GetAvailableSlots(ctx, th.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, labels(list))

	tests := []struct {
		name    string
		start   repo.TimeOfDay
		minutes int
		want    bool
	}{
		{"listed slot", repo.NewTimeOfDay(10, 0), 60, true},
		{"spans both slots", repo.NewTimeOfDay(9, 0), 120, true},
		{"off-grid inside slots", repo.NewTimeOfDay(9, 30), 60, true},
		{"reaches into remainder", repo.NewTimeOfDay(10, 30), 60, false},
		{"remainder only", repo.NewTimeOfDay(11, 0), 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsFree(ctx, th.ID, monday, tt.start, tt.minutes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
