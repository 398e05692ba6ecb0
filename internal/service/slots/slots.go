package slots

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/jalali"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type TimeSlot struct {
	Start repo.TimeOfDay `json:"start"`
	End   repo.TimeOfDay `json:"end"`
	Hour  int            `json:"hour"`
	Label string         `json:"time_display"`
}

type DaySlots struct {
	TherapistID uuid.UUID  `json:"therapist_id"`
	Date        string     `json:"date"`
	JalaliDate  string     `json:"jalali_date"`
	Weekday     string     `json:"weekday"`
	Slots       []TimeSlot `json:"slots"`
}

// Cache is the read-through store for slot listings. Misses and failures fall
// back to the repository.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type NopCache struct{}

func (NopCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (NopCache) DeletePrefix(context.Context, string) error { return nil }

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// GetAvailableSlots returns the free fixed-size slots of a therapist on a
	// civil date, in chronological order.
	GetAvailableSlots(ctx context.Context, therapistID uuid.UUID, date time.Time) ([]TimeSlot, error)
	GetDay(ctx context.Context, therapistID uuid.UUID, date time.Time) (*DaySlots, error)
	IsFree(ctx context.Context, therapistID uuid.UUID, date time.Time, start repo.TimeOfDay, durationMinutes int) (bool, error)

	// Invalidate drops cached listings of a therapist.
	Invalidate(ctx context.Context, therapistID uuid.UUID)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type slotsService struct {
	store repo.Store
	cache Cache
	cfg   config.SchedulingConfig
}

func New(store repo.Store, cache Cache, cfg config.SchedulingConfig) Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &slotsService{store: store, cache: cache, cfg: cfg}
}

func cacheKey(therapistID uuid.UUID, date time.Time) string {
	return cachePrefix(therapistID) + date.Format(time.DateOnly)
}

func cachePrefix(therapistID uuid.UUID) string {
	return fmt.Sprintf("slots:%s:", therapistID)
}

func (s *slotsService) GetAvailableSlots(ctx context.Context, therapistID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	date = repo.DateOf(date)
	key := cacheKey(therapistID, date)

	var cached []TimeSlot
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		slog.Warn("slots: cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, nil
	}

	if _, err := s.store.GetTherapist(ctx, therapistID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get therapist")
	}

	free, err := FreeIntervals(ctx, s.store, therapistID, date, uuid.Nil)
	if err != nil {
		return nil, err
	}

	out := lo.Map(Discretize(free, s.cfg.SlotMinutes), func(iv Interval, _ int) TimeSlot {
		return TimeSlot{Start: iv.Start, End: iv.End, Hour: iv.Start.Hour(), Label: iv.Start.String()}
	})

	if err := s.cache.SetJSON(ctx, key, out, s.cfg.SlotCacheTTL()); err != nil {
		slog.Warn("slots: cache write failed", "key", key, "error", err)
	}
	return out, nil
}

func (s *slotsService) GetDay(ctx context.Context, therapistID uuid.UUID, date time.Time) (*DaySlots, error) {
	date = repo.DateOf(date)
	list, err := s.GetAvailableSlots(ctx, therapistID, date)
	if err != nil {
		return nil, err
	}
	return &DaySlots{
		TherapistID: therapistID,
		Date:        date.Format(time.DateOnly),
		JalaliDate:  jalali.Format(date, jalali.LayoutDate),
		Weekday:     string(repo.WeekdayOf(date.Weekday())),
		Slots:       list,
	}, nil
}

func (s *slotsService) IsFree(ctx context.Context, therapistID uuid.UUID, date time.Time, start repo.TimeOfDay, durationMinutes int) (bool, error) {
	iv := Interval{Start: start, End: start + repo.TimeOfDay(durationMinutes)}
	return IsFree(ctx, s.store, therapistID, date, iv, uuid.Nil, s.cfg.SlotMinutes)
}

func (s *slotsService) Invalidate(ctx context.Context, therapistID uuid.UUID) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix(therapistID)); err != nil {
		slog.Warn("slots: cache invalidation failed", "therapist_id", therapistID, "error", err)
	}
}

// ---------------------------------------------------------------------------
// Derivation
// ---------------------------------------------------------------------------

// FreeIntervals is the union of the therapist's active windows on the weekday of
// date minus the ranges of busy sessions on that date. A session equal to
// exclude is not counted as busy.
func FreeIntervals(ctx context.Context, store repo.Store, therapistID uuid.UUID, date time.Time, exclude uuid.UUID) ([]Interval, error) {
	date = repo.DateOf(date)
	day := repo.WeekdayOf(date.Weekday())

	windows, err := store.ListWindows(ctx, repo.WindowFilter{
		TherapistID: therapistID,
		DayOfWeek:   &day,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list windows")
	}
	if len(windows) == 0 {
		return nil, nil
	}

	sessions, err := store.ListSessions(ctx, repo.SessionFilter{
		TherapistID: &therapistID,
		Statuses:    repo.BusyStatuses,
		DateFrom:    &date,
		DateTo:      &date,
		Unpaged:     true,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list sessions")
	}

	available := lo.Map(windows, func(w *repo.AvailabilityWindow, _ int) Interval {
		return Interval{Start: w.StartTime, End: w.EndTime}
	})
	busy := lo.FilterMap(sessions, func(ss *repo.Session, _ int) (Interval, bool) {
		return Interval{Start: ss.StartTime, End: ss.EndTime()}, ss.ID != exclude
	})
	return Subtract(available, busy), nil
}

// IsFree reports whether iv fits inside the listed slots of date. Adjacent
// slots merge, so longer or off-grid ranges pass when the slots cover them.
// A remainder shorter than one slot is never bookable.
func IsFree(ctx context.Context, store repo.Store, therapistID uuid.UUID, date time.Time, iv Interval, exclude uuid.UUID, slotMinutes int) (bool, error) {
	free, err := FreeIntervals(ctx, store, therapistID, date, exclude)
	if err != nil {
		return false, err
	}
	return Contains(Discretize(free, slotMinutes), iv), nil
}
