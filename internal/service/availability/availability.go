package availability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type AddWindowRequest struct {
	TherapistID uuid.UUID
	DayOfWeek   repo.Weekday
	Start       repo.TimeOfDay
	End         repo.TimeOfDay
}

// UpdateWindowRequest changes only the non-nil fields.
type UpdateWindowRequest struct {
	DayOfWeek *repo.Weekday
	Start     *repo.TimeOfDay
	End       *repo.TimeOfDay
	IsActive  *bool
}

// Invalidator drops derived slot listings of a therapist.
type Invalidator interface {
	Invalidate(ctx context.Context, therapistID uuid.UUID)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	AddWindow(ctx context.Context, req AddWindowRequest) (*repo.AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, windowID uuid.UUID, req UpdateWindowRequest) (*repo.AvailabilityWindow, error)
	DeactivateWindow(ctx context.Context, windowID uuid.UUID) error
	ActivateWindow(ctx context.Context, windowID uuid.UUID) error
	DeleteWindow(ctx context.Context, windowID uuid.UUID) error
	GetWindow(ctx context.Context, windowID uuid.UUID) (*repo.AvailabilityWindow, error)
	ListWindows(ctx context.Context, f repo.WindowFilter) ([]*repo.AvailabilityWindow, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type availabilityService struct {
	store repo.Store
	slots Invalidator
}

func New(store repo.Store, slots Invalidator) Service {
	return &availabilityService{store: store, slots: slots}
}

func validate(day repo.Weekday, start, end repo.TimeOfDay) error {
	if !day.IsValid() {
		return ErrInvalidWeekday
	}
	if start < 0 || end > repo.MinutesPerDay || start >= end {
		return ErrInvalidRange
	}
	return nil
}

func (s *availabilityService) AddWindow(ctx context.Context, req AddWindowRequest) (*repo.AvailabilityWindow, error) {
	if err := validate(req.DayOfWeek, req.Start, req.End); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTherapist(ctx, req.TherapistID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get therapist")
	}

	w := &repo.AvailabilityWindow{
		TherapistID: req.TherapistID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.Start,
		EndTime:     req.End,
		IsActive:    true,
	}
	if err := s.store.CreateWindow(ctx, w); err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrDuplicateWindow
		}
		return nil, errs.Wrap(err, "create window")
	}

	slog.Info("availability: window added",
		"window_id", w.ID, "therapist_id", w.TherapistID, "day", w.DayOfWeek,
		"start", w.StartTime.String(), "end", w.EndTime.String())
	s.slots.Invalidate(ctx, w.TherapistID)
	return w, nil
}

func (s *availabilityService) UpdateWindow(ctx context.Context, windowID uuid.UUID, req UpdateWindowRequest) (*repo.AvailabilityWindow, error) {
	w, err := s.GetWindow(ctx, windowID)
	if err != nil {
		return nil, err
	}
	if req.DayOfWeek != nil {
		w.DayOfWeek = *req.DayOfWeek
	}
	if req.Start != nil {
		w.StartTime = *req.Start
	}
	if req.End != nil {
		w.EndTime = *req.End
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	if err := validate(w.DayOfWeek, w.StartTime, w.EndTime); err != nil {
		return nil, err
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *availabilityService) DeactivateWindow(ctx context.Context, windowID uuid.UUID) error {
	return s.setActive(ctx, windowID, false)
}

func (s *availabilityService) ActivateWindow(ctx context.Context, windowID uuid.UUID) error {
	return s.setActive(ctx, windowID, true)
}

func (s *availabilityService) setActive(ctx context.Context, windowID uuid.UUID, active bool) error {
	w, err := s.GetWindow(ctx, windowID)
	if err != nil {
		return err
	}
	if w.IsActive == active {
		return nil
	}
	w.IsActive = active
	return s.save(ctx, w)
}

func (s *availabilityService) save(ctx context.Context, w *repo.AvailabilityWindow) error {
	if err := s.store.UpdateWindow(ctx, w); err != nil {
		switch {
		case repo.IsNotFound(err):
			return ErrWindowNotFound
		case repo.IsDuplicate(err):
			return ErrDuplicateWindow
		}
		return errs.Wrap(err, "update window")
	}
	s.slots.Invalidate(ctx, w.TherapistID)
	return nil
}

func (s *availabilityService) DeleteWindow(ctx context.Context, windowID uuid.UUID) error {
	w, err := s.GetWindow(ctx, windowID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteWindow(ctx, windowID); err != nil {
		if repo.IsNotFound(err) {
			return ErrWindowNotFound
		}
		return errs.Wrap(err, "delete window")
	}
	slog.Info("availability: window deleted", "window_id", windowID, "therapist_id", w.TherapistID)
	s.slots.Invalidate(ctx, w.TherapistID)
	return nil
}

func (s *availabilityService) GetWindow(ctx context.Context, windowID uuid.UUID) (*repo.AvailabilityWindow, error) {
	w, err := s.store.GetWindow(ctx, windowID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrWindowNotFound
		}
		return nil, errs.Wrap(err, "get window")
	}
	return w, nil
}

func (s *availabilityService) ListWindows(ctx context.Context, f repo.WindowFilter) ([]*repo.AvailabilityWindow, error) {
	if _, err := s.store.GetTherapist(ctx, f.TherapistID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get therapist")
	}
	if f.DayOfWeek != nil && !f.DayOfWeek.IsValid() {
		return nil, ErrInvalidWeekday
	}
	windows, err := s.store.ListWindows(ctx, f)
	if err != nil {
		return nil, errs.Wrap(err, "list windows")
	}
	return windows, nil
}
