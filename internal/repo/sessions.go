package repo

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const (
	tableSessions     = "sessions"
	tableSessionTypes = "session_types"

	dateLayout = "2006-01-02"
)

var sessionTypeColumns = []string{"id", "name", "description", "duration_minutes", "price", "is_active", "created_at"}

func scanSessionType(sc entsql.ColumnScanner) (*SessionType, error) {
	var st SessionType
	if err := sc.Scan(&st.ID, &st.Name, &st.Description, &st.DurationMinutes, &st.Price, &st.IsActive, &st.CreatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpsertSessionType inserts a session type or updates the one with the same name.
func (c *Client) UpsertSessionType(ctx context.Context, st *SessionType) error {
	if st.ID == uuid.Nil {
		st.ID = newID()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	q := pg.Insert(tableSessionTypes).
		Columns(sessionTypeColumns...).
		Values(st.ID, st.Name, st.Description, st.DurationMinutes, st.Price, st.IsActive, st.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded("description").
					SetExcluded("duration_minutes").
					SetExcluded("price").
					SetExcluded("is_active")
			}),
		).
		Returning("id", "created_at")
	query, args := q.Query()
	var rows entsql.Rows
	if err := c.conn.Query(ctx, query, args, &rows); err != nil {
		return mapErr(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&st.ID, &st.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) GetSessionType(ctx context.Context, id uuid.UUID) (*SessionType, error) {
	q := pg.Select(sessionTypeColumns...).From(pg.Table(tableSessionTypes)).Where(entsql.EQ("id", id))
	var st *SessionType
	err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) (err error) {
		st, err = scanSessionType(sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Client) ListSessionTypes(ctx context.Context, activeOnly bool) ([]*SessionType, error) {
	q := pg.Select(sessionTypeColumns...).From(pg.Table(tableSessionTypes)).OrderBy("name")
	if activeOnly {
		q.Where(entsql.EQ("is_active", true))
	}
	var out []*SessionType
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		st, err := scanSessionType(sc)
		if err != nil {
			return err
		}
		out = append(out, st)
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// sessions
// ---------------------------------------------------------------------------

var sessionColumns = []string{
	"id", "client_id", "therapist_id", "session_type_id", "status", "mode",
	"scheduled_date", "start_minute", "duration_minutes",
	"location", "meeting_link", "meeting_id", "meeting_password",
	"price", "is_paid", "payment_method", "transaction_id",
	"session_notes", "goals", "homework",
	"created_at", "updated_at", "started_at", "ended_at",
}

func scanSession(sc entsql.ColumnScanner) (*Session, error) {
	var (
		s              Session
		start          int
		started, ended sql.NullTime
	)
	err := sc.Scan(
		&s.ID, &s.ClientID, &s.TherapistID, &s.SessionTypeID, &s.Status, &s.Mode,
		&s.ScheduledDate, &start, &s.DurationMinutes,
		&s.Location, &s.MeetingLink, &s.MeetingID, &s.MeetingPassword,
		&s.Price, &s.IsPaid, &s.PaymentMethod, &s.TransactionID,
		&s.SessionNotes, &s.Goals, &s.Homework,
		&s.CreatedAt, &s.UpdatedAt, &started, &ended,
	)
	if err != nil {
		return nil, err
	}
	s.ScheduledDate = DateOf(s.ScheduledDate)
	s.StartTime = TimeOfDay(start)
	if started.Valid {
		t := started.Time
		s.StartedAt = &t
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return &s, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func (c *Client) CreateSession(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = newID()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	q := pg.Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			s.ID, s.ClientID, s.TherapistID, s.SessionTypeID, string(s.Status), string(s.Mode),
			s.ScheduledDate.Format(dateLayout), int(s.StartTime), s.DurationMinutes,
			s.Location, s.MeetingLink, s.MeetingID, s.MeetingPassword,
			s.Price, s.IsPaid, s.PaymentMethod, s.TransactionID,
			s.SessionNotes, s.Goals, s.Homework,
			s.CreatedAt, s.UpdatedAt, nullTime(s.StartedAt), nullTime(s.EndedAt),
		)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	q := pg.Select(sessionColumns...).From(pg.Table(tableSessions)).Where(entsql.EQ("id", id))
	var s *Session
	err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) (err error) {
		s, err = scanSession(sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSession writes every mutable column of s.
func (c *Client) UpdateSession(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	q := pg.Update(tableSessions).
		Set("status", string(s.Status)).
		Set("mode", string(s.Mode)).
		Set("scheduled_date", s.ScheduledDate.Format(dateLayout)).
		Set("start_minute", int(s.StartTime)).
		Set("duration_minutes", s.DurationMinutes).
		Set("location", s.Location).
		Set("meeting_link", s.MeetingLink).
		Set("meeting_id", s.MeetingID).
		Set("meeting_password", s.MeetingPassword).
		Set("price", s.Price).
		Set("is_paid", s.IsPaid).
		Set("payment_method", s.PaymentMethod).
		Set("transaction_id", s.TransactionID).
		Set("session_notes", s.SessionNotes).
		Set("goals", s.Goals).
		Set("homework", s.Homework).
		Set("updated_at", s.UpdatedAt).
		Set("started_at", nullTime(s.StartedAt)).
		Set("ended_at", nullTime(s.EndedAt)).
		Where(entsql.EQ("id", s.ID))
	return c.execOne(ctx, q)
}

func (c *Client) ListSessions(ctx context.Context, f SessionFilter) ([]*Session, error) {
	q := pg.Select(sessionColumns...).From(pg.Table(tableSessions))
	if f.ClientID != nil {
		q.Where(entsql.EQ("client_id", *f.ClientID))
	}
	if f.TherapistID != nil {
		q.Where(entsql.EQ("therapist_id", *f.TherapistID))
	}
	if len(f.Statuses) > 0 {
		args := make([]any, len(f.Statuses))
		for i, st := range f.Statuses {
			args[i] = string(st)
		}
		q.Where(entsql.In("status", args...))
	}
	if f.DateFrom != nil {
		q.Where(entsql.GTE("scheduled_date", f.DateFrom.Format(dateLayout)))
	}
	if f.DateTo != nil {
		q.Where(entsql.LTE("scheduled_date", f.DateTo.Format(dateLayout)))
	}
	if f.Newest {
		q.OrderBy(entsql.Desc("scheduled_date"), entsql.Desc("start_minute"), "id")
	} else {
		q.OrderBy("scheduled_date", "start_minute", "id")
	}
	if !f.Unpaged {
		limit, offset := f.Page.Normalize()
		q.Limit(limit).Offset(offset)
	}

	var out []*Session
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		s, err := scanSession(sc)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func (c *Client) CountSessionsByStatus(ctx context.Context, therapistID uuid.UUID) (map[SessionStatus]int, error) {
	q := pg.Select("status", "COUNT(*)").
		From(pg.Table(tableSessions)).
		Where(entsql.EQ("therapist_id", therapistID)).
		GroupBy("status")
	out := make(map[SessionStatus]int)
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		var (
			st SessionStatus
			n  int
		)
		if err := sc.Scan(&st, &n); err != nil {
			return err
		}
		out[st] = n
		return nil
	})
	return out, err
}
