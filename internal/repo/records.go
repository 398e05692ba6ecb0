package repo

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const (
	tableRatings       = "session_ratings"
	tableCancellations = "session_cancellations"
	tableNotes         = "session_notes"
	tableReminders     = "session_reminders"
)

// ---------------------------------------------------------------------------
// ratings
// ---------------------------------------------------------------------------

var ratingColumns = []string{
	"id", "session_id", "client_id", "therapist_id",
	"overall_rating", "therapist_rating", "environment_rating", "helpfulness_rating",
	"comments", "would_recommend", "created_at",
}

func scanRating(sc entsql.ColumnScanner) (*SessionRating, error) {
	var r SessionRating
	err := sc.Scan(
		&r.ID, &r.SessionID, &r.ClientID, &r.TherapistID,
		&r.OverallRating, &r.TherapistRating, &r.EnvironmentRating, &r.HelpfulnessRating,
		&r.Comments, &r.WouldRecommend, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateRating(ctx context.Context, r *SessionRating) error {
	if r.ID == uuid.Nil {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	q := pg.Insert(tableRatings).
		Columns(ratingColumns...).
		Values(
			r.ID, r.SessionID, r.ClientID, r.TherapistID,
			r.OverallRating, r.TherapistRating, r.EnvironmentRating, r.HelpfulnessRating,
			r.Comments, r.WouldRecommend, r.CreatedAt,
		)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) GetRatingBySession(ctx context.Context, sessionID uuid.UUID) (*SessionRating, error) {
	q := pg.Select(ratingColumns...).From(pg.Table(tableRatings)).Where(entsql.EQ("session_id", sessionID))
	var r *SessionRating
	err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) (err error) {
		r, err = scanRating(sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Client) ListRatings(ctx context.Context, f RatingFilter) ([]*SessionRating, error) {
	q := pg.Select(ratingColumns...).From(pg.Table(tableRatings)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if f.TherapistID != nil {
		q.Where(entsql.EQ("therapist_id", *f.TherapistID))
	}
	if f.ClientID != nil {
		q.Where(entsql.EQ("client_id", *f.ClientID))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	var out []*SessionRating
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		r, err := scanRating(sc)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// cancellations
// ---------------------------------------------------------------------------

var cancellationColumns = []string{
	"id", "session_id", "cancelled_by", "reason", "explanation",
	"refund_amount", "refund_percent", "refund_policy", "notice_minutes", "is_refunded", "created_at",
}

func (c *Client) CreateCancellation(ctx context.Context, x *SessionCancellation) error {
	if x.ID == uuid.Nil {
		x.ID = newID()
	}
	if x.CreatedAt.IsZero() {
		x.CreatedAt = time.Now().UTC()
	}
	q := pg.Insert(tableCancellations).
		Columns(cancellationColumns...).
		Values(
			x.ID, x.SessionID, x.CancelledBy, string(x.Reason), x.Explanation,
			x.RefundAmount, x.RefundPercent, x.RefundPolicy, x.NoticeMinutes, x.IsRefunded, x.CreatedAt,
		)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) ListCancellations(ctx context.Context, sessionID uuid.UUID) ([]*SessionCancellation, error) {
	q := pg.Select(cancellationColumns...).From(pg.Table(tableCancellations)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("created_at")
	var out []*SessionCancellation
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		var x SessionCancellation
		err := sc.Scan(
			&x.ID, &x.SessionID, &x.CancelledBy, &x.Reason, &x.Explanation,
			&x.RefundAmount, &x.RefundPercent, &x.RefundPolicy, &x.NoticeMinutes, &x.IsRefunded, &x.CreatedAt,
		)
		if err != nil {
			return err
		}
		out = append(out, &x)
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// notes
// ---------------------------------------------------------------------------

var noteColumns = []string{
	"id", "session_id", "author_id", "note_type", "title", "content", "is_private", "created_at", "updated_at",
}

func (c *Client) CreateNote(ctx context.Context, n *SessionNote) error {
	if n.ID == uuid.Nil {
		n.ID = newID()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	q := pg.Insert(tableNotes).
		Columns(noteColumns...).
		Values(n.ID, n.SessionID, n.AuthorID, string(n.Type), n.Title, n.Content, n.IsPrivate, n.CreatedAt, n.UpdatedAt)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) ListNotes(ctx context.Context, f NoteFilter) ([]*SessionNote, error) {
	q := pg.Select(noteColumns...).From(pg.Table(tableNotes)).
		Where(entsql.EQ("session_id", f.SessionID)).
		OrderBy(entsql.Desc("created_at"))
	if !f.IncludePrivate {
		q.Where(entsql.EQ("is_private", false))
	}
	var out []*SessionNote
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		var n SessionNote
		if err := sc.Scan(&n.ID, &n.SessionID, &n.AuthorID, &n.Type, &n.Title, &n.Content, &n.IsPrivate, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return err
		}
		out = append(out, &n)
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// reminders
// ---------------------------------------------------------------------------

var reminderColumns = []string{
	"id", "session_id", "reminder_type", "scheduled_time", "is_sent", "sent_at", "attempts", "last_error", "claimed_until", "created_at",
}

func scanReminder(sc entsql.ColumnScanner) (*SessionReminder, error) {
	var (
		r       SessionReminder
		sentAt  sql.NullTime
		claimed sql.NullTime
	)
	if err := sc.Scan(&r.ID, &r.SessionID, &r.Type, &r.ScheduledTime, &r.IsSent, &sentAt, &r.Attempts, &r.LastError, &claimed, &r.CreatedAt); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		r.SentAt = &t
	}
	if claimed.Valid {
		t := claimed.Time
		r.ClaimedUntil = &t
	}
	return &r, nil
}

func (c *Client) listReminders(ctx context.Context, q *entsql.Selector) ([]*SessionReminder, error) {
	var out []*SessionReminder
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		r, err := scanReminder(sc)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func (c *Client) CreateReminder(ctx context.Context, r *SessionReminder) error {
	if r.ID == uuid.Nil {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	q := pg.Insert(tableReminders).
		Columns(reminderColumns...).
		Values(r.ID, r.SessionID, string(r.Type), r.ScheduledTime, r.IsSent, nullTime(r.SentAt), r.Attempts, r.LastError, nullTime(r.ClaimedUntil), r.CreatedAt)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) ListReminders(ctx context.Context, sessionID uuid.UUID) ([]*SessionReminder, error) {
	q := pg.Select(reminderColumns...).From(pg.Table(tableReminders)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("scheduled_time", "id")
	return c.listReminders(ctx, q)
}

// ListDueReminders returns unsent reminders scheduled at or before now. The
// rows are locked with SKIP LOCKED when called inside a transaction so that
// concurrent dispatchers do not pick the same reminder.
func (c *Client) ListDueReminders(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*SessionReminder, error) {
	q := pg.Select(reminderColumns...).From(pg.Table(tableReminders)).
		Where(entsql.And(
			entsql.EQ("is_sent", false),
			entsql.LTE("scheduled_time", now),
			entsql.Or(entsql.IsNull("claimed_until"), entsql.LTE("claimed_until", now)),
		)).
		OrderBy("scheduled_time", "id")
	if maxAttempts > 0 {
		q.Where(entsql.LT("attempts", maxAttempts))
	}
	if limit > 0 {
		q.Limit(limit)
	}
	if c.drv == nil {
		q.ForUpdate(entsql.WithLockAction(entsql.SkipLocked))
	}
	return c.listReminders(ctx, q)
}

func (c *Client) UpdateReminder(ctx context.Context, r *SessionReminder) error {
	q := pg.Update(tableReminders).
		Set("scheduled_time", r.ScheduledTime).
		Set("is_sent", r.IsSent).
		Set("sent_at", nullTime(r.SentAt)).
		Set("attempts", r.Attempts).
		Set("last_error", r.LastError).
		Set("claimed_until", nullTime(r.ClaimedUntil)).
		Where(entsql.EQ("id", r.ID))
	return c.execOne(ctx, q)
}

func (c *Client) DeleteUnsentReminders(ctx context.Context, sessionID uuid.UUID) error {
	q := pg.Delete(tableReminders).Where(entsql.And(
		entsql.EQ("session_id", sessionID),
		entsql.EQ("is_sent", false),
	))
	_, err := c.exec(ctx, q)
	return err
}
