package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/jalali"
)

// Delivery is everything a Sender needs to render one reminder.
type Delivery struct {
	Reminder  *repo.SessionReminder
	Session   *repo.Session
	Client    *repo.User
	Therapist *repo.User
	StartsAt  time.Time
}

func (d Delivery) JalaliDate() string { return jalali.Format(d.StartsAt, jalali.LayoutDate) }
func (d Delivery) Time() string { return d.Session.StartTime.String() }

// Sender delivers reminders of one type.
type Sender interface {
	Send(ctx context.Context, d Delivery) error
}

type SenderFunc func(ctx context.Context, d Delivery) error

func (f SenderFunc) Send(ctx context.Context, d Delivery) error { return f(ctx, d) }

type DispatchMetrics interface {
	ReminderDispatched(ctx context.Context, reminderType, outcome string)
}

// Dispatch outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeGaveUp  = "gave_up"
	OutcomeSkipped = "skipped"
)

type Result struct {
	Sent    int
	Failed  int
	Skipped int
}

// Dispatcher polls due reminders and hands them to the sender of their type.
type Dispatcher struct {
	store   repo.Store
	senders map[repo.ReminderType]Sender
	clock   clock.Clock
	cfg     config.RemindersConfig
	loc     *time.Location
	limiter *rate.Limiter
	metrics DispatchMetrics
}

func NewDispatcher(store repo.Store, senders map[repo.ReminderType]Sender, clk clock.Clock, cfg config.RemindersConfig, loc *time.Location, metrics DispatchMetrics) *Dispatcher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		store:   store,
		senders: senders,
		clock:   clk,
		cfg:     cfg,
		loc:     loc,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	interval := d.cfg.PollInterval()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	slog.Info("reminder_dispatcher: started", "poll_interval", interval.String(), "batch_size", d.cfg.BatchSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := d.DispatchDue(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Error("reminder_dispatcher: batch failed", "error", err)
		case res.Sent+res.Failed+res.Skipped > 0:
			slog.Info("reminder_dispatcher: batch done", "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
		}

		select {
		case <-ctx.Done():
			slog.Info("reminder_dispatcher: stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchDue delivers one batch of due reminders. The batch is claimed in a
// short transaction and every result is recorded in its own, so a failure or
// cancellation mid-batch keeps the reminders already delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context) (Result, error) {
	var res Result
	due, err := d.claim(ctx)
	if err != nil {
		return res, err
	}

	for i, r := range due {
		if ctx.Err() != nil {
			d.release(ctx, due[i:])
			return res, ctx.Err()
		}
		outcome, err := d.dispatch(ctx, r)
		if err != nil {
			d.release(ctx, due[i:])
			return res, err
		}
		switch outcome {
		case OutcomeSent:
			res.Sent++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
		if d.metrics != nil {
			d.metrics.ReminderDispatched(ctx, string(r.Type), outcome)
		}
	}
	return res, nil
}

// claim leases the next batch so that concurrent dispatchers skip it.
func (d *Dispatcher) claim(ctx context.Context) ([]*repo.SessionReminder, error) {
	var due []*repo.SessionReminder
	err := d.store.WithTx(ctx, nil, func(tx repo.Store) error {
		now := d.clock.Now()
		list, err := tx.ListDueReminders(ctx, now, d.cfg.MaxAttempts, d.cfg.BatchSize)
		if err != nil {
			return errs.Wrap(err, "list due reminders")
		}
		until := now.Add(d.cfg.ClaimLease())
		for _, r := range list {
			r.ClaimedUntil = &until
			if err := tx.UpdateReminder(ctx, r); err != nil {
				return errs.Wrap(err, "claim reminder")
			}
		}
		due = list
		return nil
	})
	return due, err
}

// release hands unprocessed claims back to the next poll.
func (d *Dispatcher) release(ctx context.Context, rest []*repo.SessionReminder) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range rest {
		r.ClaimedUntil = nil
		if err := d.record(ctx, r); err != nil {
			slog.Warn("reminder_dispatcher: release failed", "reminder_id", r.ID, "error", err)
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, r *repo.SessionReminder) error {
	return d.store.WithTx(ctx, []string{"reminder:" + r.ID.String()}, func(tx repo.Store) error {
		if err := tx.UpdateReminder(ctx, r); err != nil {
			return errs.Wrap(err, "update reminder")
		}
		return nil
	})
}

// dispatch delivers r and records the result. The returned error is reserved
// for store failures and cancellation; delivery failures are recorded on the
// reminder.
func (d *Dispatcher) dispatch(ctx context.Context, r *repo.SessionReminder) (string, error) {
	delivery, active, err := d.load(ctx, r)
	if err != nil {
		return "", err
	}

	outcome := OutcomeSent
	switch {
	case !active:
		outcome = OutcomeSkipped
		r.LastError = "session is no longer active"
	default:
		sender, ok := d.senders[r.Type]
		if !ok {
			err = fmt.Errorf("no sender for %s reminders", r.Type)
		} else if err = d.limiter.Wait(ctx); err == nil {
			err = sender.Send(ctx, delivery)
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.Attempts++
			r.LastError = err.Error()
			outcome = OutcomeFailed
			if d.cfg.MaxAttempts > 0 && r.Attempts >= d.cfg.MaxAttempts {
				outcome = OutcomeGaveUp
				slog.Warn("reminder_dispatcher: giving up", "reminder_id", r.ID, "attempts", r.Attempts, "error", err)
			} else {
				slog.Warn("reminder_dispatcher: delivery failed", "reminder_id", r.ID, "attempts", r.Attempts, "error", err)
			}
		}
	}

	if outcome == OutcomeSent || outcome == OutcomeSkipped {
		now := d.clock.Now()
		r.IsSent = true
		r.SentAt = &now
		if outcome == OutcomeSent {
			r.Attempts++
			r.LastError = ""
		}
	}
	r.ClaimedUntil = nil
	// a delivered reminder is recorded even when ctx ends right after the send
	if err := d.record(context.WithoutCancel(ctx), r); err != nil {
		return "", err
	}
	return outcome, nil
}

func (d *Dispatcher) load(ctx context.Context, r *repo.SessionReminder) (Delivery, bool, error) {
	sess, err := d.store.GetSession(ctx, r.SessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Delivery{}, false, nil
		}
		return Delivery{}, false, errs.Wrap(err, "get session")
	}
	if sess.Status != repo.StatusScheduled && sess.Status != repo.StatusConfirmed {
		return Delivery{}, false, nil
	}

	client, err := d.store.GetUser(ctx, sess.ClientID)
	if err != nil {
		return Delivery{}, false, errs.Wrap(err, "get client")
	}
	therapist, err := d.store.GetUser(ctx, sess.TherapistID)
	if err != nil {
		return Delivery{}, false, errs.Wrap(err, "get therapist")
	}
	return Delivery{
		Reminder:  r,
		Session:   sess,
		Client:    client,
		Therapist: therapist,
		StartsAt:  sess.StartsAt(d.loc),
	}, true, nil
}
