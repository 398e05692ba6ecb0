// Package seed loads fixture users, therapists, session types and weekly
// windows into a store. Applying the same file twice is a no-op.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

//go:embed default.yaml
var defaultSeed []byte

type File struct {
	Users        []User        `yaml:"users"`
	Therapists   []Therapist   `yaml:"therapists"`
	SessionTypes []SessionType `yaml:"session_types"`
}

type User struct {
	ID       uuid.UUID `yaml:"id"`
	FullName string    `yaml:"full_name"`
	Role     repo.Role `yaml:"role"`
	Phone    string    `yaml:"phone"`
	Email    string    `yaml:"email"`
}

type Therapist struct {
	ID              uuid.UUID `yaml:"id"`
	FullName        string    `yaml:"full_name"`
	Phone           string    `yaml:"phone"`
	Email           string    `yaml:"email"`
	Specializations []string  `yaml:"specializations"`
	HourlyRate      int64     `yaml:"hourly_rate"`
	YearsExperience int       `yaml:"years_experience"`
	Bio             string    `yaml:"bio"`
	Windows         []Window  `yaml:"windows"`
}

type Window struct {
	Day   repo.Weekday   `yaml:"day"`
	Start repo.TimeOfDay `yaml:"start"`
	End   repo.TimeOfDay `yaml:"end"`
}

type SessionType struct {
	ID              uuid.UUID `yaml:"id"`
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	DurationMinutes int       `yaml:"duration_minutes"`
	Price           int64     `yaml:"price"`
}

// Result counts what Apply wrote.
type Result struct {
	Users        int
	Therapists   int
	SessionTypes int
	Windows      int
}

// Default returns the embedded demo seed.
func Default() (*File, error) {
	var f File
	if err := yaml.Unmarshal(defaultSeed, &f); err != nil {
		return nil, fmt.Errorf("seed: parse default: %w", err)
	}
	return &f, nil
}

func Load(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	return &f, nil
}

func (f *File) validate() error {
	for _, u := range f.Users {
		if u.ID == uuid.Nil || u.FullName == "" {
			return fmt.Errorf("seed: user %q needs an id and a name", u.FullName)
		}
		switch u.Role {
		case repo.RoleClient, repo.RoleAdmin, repo.RoleTherapist:
		default:
			return fmt.Errorf("seed: user %q has unknown role %q", u.FullName, u.Role)
		}
	}
	for _, t := range f.Therapists {
		if t.ID == uuid.Nil || t.FullName == "" {
			return fmt.Errorf("seed: therapist %q needs an id and a name", t.FullName)
		}
		for _, w := range t.Windows {
			if !w.Day.IsValid() {
				return fmt.Errorf("seed: therapist %q: unknown day %q", t.FullName, w.Day)
			}
			if w.End <= w.Start {
				return fmt.Errorf("seed: therapist %q: window %s-%s ends before it starts", t.FullName, w.Start, w.End)
			}
		}
	}
	for _, st := range f.SessionTypes {
		if st.ID == uuid.Nil || st.DurationMinutes <= 0 {
			return fmt.Errorf("seed: session type %q needs an id and a positive duration", st.Name)
		}
	}
	return nil
}

// Apply upserts everything in f. Windows that already exist for the same
// therapist, day and start time are left untouched.
func Apply(ctx context.Context, store repo.Store, f *File) (Result, error) {
	var res Result
	if err := f.validate(); err != nil {
		return res, err
	}

	for _, u := range f.Users {
		if err := store.UpsertUser(ctx, &repo.User{
			ID:       u.ID,
			FullName: u.FullName,
			Role:     u.Role,
			Phone:    u.Phone,
			Email:    u.Email,
			IsActive: true,
		}); err != nil {
			return res, fmt.Errorf("seed: user %s: %w", u.ID, err)
		}
		res.Users++
	}

	for _, t := range f.Therapists {
		if err := store.UpsertUser(ctx, &repo.User{
			ID:       t.ID,
			FullName: t.FullName,
			Role:     repo.RoleTherapist,
			Phone:    t.Phone,
			Email:    t.Email,
			IsActive: true,
		}); err != nil {
			return res, fmt.Errorf("seed: therapist %s: %w", t.ID, err)
		}
		if err := store.UpsertTherapistProfile(ctx, &repo.TherapistProfile{
			UserID:          t.ID,
			Specializations: t.Specializations,
			HourlyRate:      t.HourlyRate,
			IsAccepting:     true,
			Bio:             t.Bio,
			YearsExperience: t.YearsExperience,
		}); err != nil {
			return res, fmt.Errorf("seed: therapist profile %s: %w", t.ID, err)
		}
		res.Therapists++

		for _, w := range t.Windows {
			err := store.CreateWindow(ctx, &repo.AvailabilityWindow{
				TherapistID: t.ID,
				DayOfWeek:   w.Day,
				StartTime:   w.Start,
				EndTime:     w.End,
				IsActive:    true,
			})
			switch {
			case repo.IsDuplicate(err):
				slog.Debug("seed: window exists", "therapist_id", t.ID, "day", w.Day, "start", w.Start)
			case err != nil:
				return res, fmt.Errorf("seed: window %s %s: %w", t.ID, w.Day, err)
			default:
				res.Windows++
			}
		}
	}

	for _, st := range f.SessionTypes {
		if err := store.UpsertSessionType(ctx, &repo.SessionType{
			ID:              st.ID,
			Name:            st.Name,
			Description:     st.Description,
			DurationMinutes: st.DurationMinutes,
			Price:           st.Price,
			IsActive:        true,
		}); err != nil {
			return res, fmt.Errorf("seed: session type %s: %w", st.ID, err)
		}
		res.SessionTypes++
	}

	return res, nil
}
