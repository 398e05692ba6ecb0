package repo

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	tableUsers    = "users"
	tableProfiles = "therapist_profiles"
)

var userColumns = []string{"id", "full_name", "role", "phone", "email", "is_active", "created_at"}

func scanUser(sc entsql.ColumnScanner, u *User) error {
	return sc.Scan(&u.ID, &u.FullName, &u.Role, &u.Phone, &u.Email, &u.IsActive, &u.CreatedAt)
}

func (c *Client) UpsertUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	q := pg.Insert(tableUsers).
		Columns(userColumns...).
		Values(u.ID, u.FullName, string(u.Role), u.Phone, u.Email, u.IsActive, u.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded("full_name").
					SetExcluded("role").
					SetExcluded("phone").
					SetExcluded("email").
					SetExcluded("is_active")
			}),
		)
	_, err := c.exec(ctx, q)
	return err
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	q := pg.Select(userColumns...).From(entsql.Table(tableUsers)).Where(entsql.EQ("id", id))
	var u User
	if err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) error { return scanUser(sc, &u) }); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpsertTherapistProfile(ctx context.Context, p *TherapistProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	q := pg.Insert(tableProfiles).
		Columns("user_id", "specializations", "hourly_rate", "is_accepting", "bio", "years_experience", "created_at", "updated_at").
		Values(p.UserID, pq.Array(p.Specializations), p.HourlyRate, p.IsAccepting, p.Bio, p.YearsExperience, p.CreatedAt, p.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded("specializations").
					SetExcluded("hourly_rate").
					SetExcluded("is_accepting").
					SetExcluded("bio").
					SetExcluded("years_experience").
					SetExcluded("updated_at")
			}),
		)
	_, err := c.exec(ctx, q)
	return err
}

// therapistSelector joins users with their therapist profile.
func therapistSelector() (*entsql.Selector, *entsql.SelectTable, *entsql.SelectTable) {
	u := pg.Table(tableUsers).As("u")
	p := pg.Table(tableProfiles).As("p")
	q := pg.Select(
		u.C("id"), u.C("full_name"), u.C("role"), u.C("phone"), u.C("email"), u.C("is_active"), u.C("created_at"),
		p.C("specializations"), p.C("hourly_rate"), p.C("is_accepting"), p.C("bio"), p.C("years_experience"),
		p.C("created_at"), p.C("updated_at"),
	).
		From(u).
		Join(p).On(u.C("id"), p.C("user_id")).
		Where(entsql.EQ(u.C("role"), string(RoleTherapist)))
	return q, u, p
}

func scanTherapist(sc entsql.ColumnScanner) (*Therapist, error) {
	var t Therapist
	err := sc.Scan(
		&t.ID, &t.FullName, &t.Role, &t.Phone, &t.Email, &t.IsActive, &t.CreatedAt,
		pq.Array(&t.Profile.Specializations), &t.Profile.HourlyRate, &t.Profile.IsAccepting,
		&t.Profile.Bio, &t.Profile.YearsExperience, &t.Profile.CreatedAt, &t.Profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Profile.UserID = t.ID
	return &t, nil
}

func (c *Client) GetTherapist(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	q, u, _ := therapistSelector()
	q.Where(entsql.EQ(u.C("id"), id))
	var t *Therapist
	err := c.queryOne(ctx, q, func(sc entsql.ColumnScanner) (err error) {
		t, err = scanTherapist(sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Client) ListTherapists(ctx context.Context, f TherapistFilter) ([]*Therapist, error) {
	q, u, p := therapistSelector()
	q.Where(entsql.EQ(u.C("is_active"), true))
	if f.AcceptingOnly {
		q.Where(entsql.EQ(p.C("is_accepting"), true))
	}
	if f.Specialization != "" {
		spec, col := f.Specialization, p.C("specializations")
		q.Where(entsql.P(func(b *entsql.Builder) {
			b.WriteString("EXISTS (SELECT 1 FROM unnest(" + col + ") AS s(v) WHERE lower(s.v) = lower(").
				Arg(spec).
				WriteString("))")
		}))
	}
	if f.Search != "" {
		q.Where(entsql.ContainsFold(u.C("full_name"), f.Search))
	}
	limit, offset := f.Page.Normalize()
	q.OrderBy(u.C("full_name"), u.C("id")).Limit(limit).Offset(offset)

	var out []*Therapist
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		t, err := scanTherapist(sc)
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}
