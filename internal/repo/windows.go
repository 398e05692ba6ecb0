package repo

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const tableWindows = "availability_windows"

var windowColumns = []string{
	"id", "therapist_id", "day_of_week", "start_minute", "end_minute", "is_active", "created_at", "updated_at",
}

func scanWindow(sc entsql.ColumnScanner) (*AvailabilityWindow, error) {
	var (
		w          AvailabilityWindow
		start, end int
	)
	if err := sc.Scan(&w.ID, &w.TherapistID, &w.DayOfWeek, &start, &end, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.StartTime, w.EndTime = TimeOfDay(start), TimeOfDay(end)
	return &w, nil
}

func (c *Client) CreateWindow(ctx context.Context, w *AvailabilityWindow) error {
	if w.ID == uuid.Nil {
		w.ID = newID()
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	q := pg.Insert(tableWindows).
		Columns(windowColumns...).
		Values(w.ID, w.TherapistID, string(w.DayOfWeek), int(w.StartTime), int(w.EndTime), w.IsActive, w.CreatedAt, w.UpdatedAt)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	q := pg.Select(windowColumns...).From(pg.Table(tableWindows)).Where(entsql.EQ("id", id))
	var w *AvailabilityWindow
	err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) (err error) {
		w, err = scanWindow(sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (c *Client) UpdateWindow(ctx context.Context, w *AvailabilityWindow) error {
	w.UpdatedAt = time.Now().UTC()
	q := pg.Update(tableWindows).
		Set("day_of_week", string(w.DayOfWeek)).
		Set("start_minute", int(w.StartTime)).
		Set("end_minute", int(w.EndTime)).
		Set("is_active", w.IsActive).
		Set("updated_at", w.UpdatedAt).
		Where(entsql.EQ("id", w.ID))
	return c.execOne(ctx, q)
}

func (c *Client) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	return c.execOne(ctx, pg.Delete(tableWindows).Where(entsql.EQ("id", id)))
}

func (c *Client) ListWindows(ctx context.Context, f WindowFilter) ([]*AvailabilityWindow, error) {
	q := pg.Select(windowColumns...).From(pg.Table(tableWindows)).Where(entsql.EQ("therapist_id", f.TherapistID))
	if f.DayOfWeek != nil {
		q.Where(entsql.EQ("day_of_week", string(*f.DayOfWeek)))
	}
	if f.ActiveOnly {
		q.Where(entsql.EQ("is_active", true))
	}
	q.OrderBy(weekdayOrder, "start_minute")

	var out []*AvailabilityWindow
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		w, err := scanWindow(sc)
		if err != nil {
			return err
		}
		out = append(out, w)
		return nil
	})
	return out, err
}

// weekdayOrder sorts day_of_week tokens monday first.
const weekdayOrder = `array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'], "day_of_week")`
