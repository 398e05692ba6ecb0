package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	ScheduleReminder(ctx context.Context, sessionID uuid.UUID, typ repo.ReminderType, fireTime time.Time) (*repo.SessionReminder, error)
	ListReminders(ctx context.Context, sessionID uuid.UUID) ([]*repo.SessionReminder, error)

	// PlanDefaults creates the configured reminders of a session inside tx.
	// Fire times that already passed are skipped.
	PlanDefaults(ctx context.Context, tx repo.Store, s *repo.Session) error
	// Replan drops unsent reminders and plans the defaults again.
	Replan(ctx context.Context, tx repo.Store, s *repo.Session) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reminderService struct {
	store repo.Store
	clock clock.Clock
	cfg   config.RemindersConfig
	loc   *time.Location
}

func New(store repo.Store, clk clock.Clock, cfg config.RemindersConfig, loc *time.Location) Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &reminderService{store: store, clock: clk, cfg: cfg, loc: loc}
}

func (s *reminderService) ScheduleReminder(ctx context.Context, sessionID uuid.UUID, typ repo.ReminderType, fireTime time.Time) (*repo.SessionReminder, error) {
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}
	if !fireTime.After(s.clock.Now()) {
		return nil, ErrPastFireTime
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, errs.Wrap(err, "get session")
	}
	if sess.Status.IsTerminal() {
		return nil, ErrSessionClosed
	}

	r := &repo.SessionReminder{
		SessionID:     sessionID,
		Type:          typ,
		ScheduledTime: fireTime.UTC(),
	}
	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, errs.Wrap(err, "create reminder")
	}
	return r, nil
}

func (s *reminderService) ListReminders(ctx context.Context, sessionID uuid.UUID) ([]*repo.SessionReminder, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, errs.Wrap(err, "get session")
	}
	list, err := s.store.ListReminders(ctx, sessionID)
	if err != nil {
		return nil, errs.Wrap(err, "list reminders")
	}
	return list, nil
}

func (s *reminderService) PlanDefaults(ctx context.Context, tx repo.Store, sess *repo.Session) error {
	if !s.cfg.Enabled {
		return nil
	}
	existing, err := tx.ListReminders(ctx, sess.ID)
	if err != nil {
		return errs.Wrap(err, "list reminders")
	}
	planned := make(map[string]bool, len(existing))
	for _, r := range existing {
		planned[string(r.Type)+r.ScheduledTime.UTC().Format(time.RFC3339)] = true
	}

	now := s.clock.Now()
	start := sess.StartsAt(s.loc)
	for _, offset := range s.cfg.Offsets() {
		fire := start.Add(-offset).UTC()
		if !fire.After(now) {
			continue
		}
		for _, t := range s.cfg.Types {
			typ := repo.ReminderType(t)
			if !typ.IsValid() || planned[t+fire.Format(time.RFC3339)] {
				continue
			}
			r := &repo.SessionReminder{SessionID: sess.ID, Type: typ, ScheduledTime: fire}
			if err := tx.CreateReminder(ctx, r); err != nil {
				return errs.Wrap(err, "create reminder")
			}
			planned[t+fire.Format(time.RFC3339)] = true
		}
	}
	return nil
}

func (s *reminderService) Replan(ctx context.Context, tx repo.Store, sess *repo.Session) error {
	if err := tx.DeleteUnsentReminders(ctx, sess.ID); err != nil {
		return errs.Wrap(err, "delete unsent reminders")
	}
	return s.PlanDefaults(ctx, tx, sess)
}
