// Package repo is the persistence layer of the booking engine. It exposes a
// Store interface with a Postgres implementation (Client) and an in-memory one
// (Memory) used by tests and local tooling.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("time range conflicts with an existing session")
	ErrDuplicate = errors.New("record already exists")
)

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is 1-based pagination shared by list filters.
type Page struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and returns limit and offset.
func (p Page) Normalize() (limit, offset int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		p.PerPage = DefaultPerPage
	}
	return p.PerPage, (p.Page - 1) * p.PerPage
}

type WindowFilter struct {
	TherapistID uuid.UUID
	DayOfWeek   *Weekday
	ActiveOnly  bool
}

type TherapistFilter struct {
	Specialization string
	AcceptingOnly  bool
	Search         string
	Page
}

type SessionFilter struct {
	ClientID    *uuid.UUID
	TherapistID *uuid.UUID
	Statuses    []SessionStatus
	// DateFrom and DateTo bound ScheduledDate inclusively.
	DateFrom *time.Time
	DateTo   *time.Time
	// Newest orders by scheduled date descending.
	Newest bool
	// Unpaged returns every match; used by internal aggregation.
	Unpaged bool
	Page
}

type RatingFilter struct {
	TherapistID *uuid.UUID
	ClientID    *uuid.UUID
	// Limit of 0 means no limit. Results are newest first.
	Limit int
}

type NoteFilter struct {
	SessionID      uuid.UUID
	IncludePrivate bool
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

type Store interface {
	// users & therapists
	UpsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	UpsertTherapistProfile(ctx context.Context, p *TherapistProfile) error
	GetTherapist(ctx context.Context, id uuid.UUID) (*Therapist, error)
	ListTherapists(ctx context.Context, f TherapistFilter) ([]*Therapist, error)

	// availability
	CreateWindow(ctx context.Context, w *AvailabilityWindow) error
	GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, w *AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	ListWindows(ctx context.Context, f WindowFilter) ([]*AvailabilityWindow, error)

	// catalog
	UpsertSessionType(ctx context.Context, st *SessionType) error
	GetSessionType(ctx context.Context, id uuid.UUID) (*SessionType, error)
	ListSessionTypes(ctx context.Context, activeOnly bool) ([]*SessionType, error)

	// sessions
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	ListSessions(ctx context.Context, f SessionFilter) ([]*Session, error)
	CountSessionsByStatus(ctx context.Context, therapistID uuid.UUID) (map[SessionStatus]int, error)

	// ratings, cancellations, notes
	CreateRating(ctx context.Context, r *SessionRating) error
	GetRatingBySession(ctx context.Context, sessionID uuid.UUID) (*SessionRating, error)
	ListRatings(ctx context.Context, f RatingFilter) ([]*SessionRating, error)
	CreateCancellation(ctx context.Context, c *SessionCancellation) error
	ListCancellations(ctx context.Context, sessionID uuid.UUID) ([]*SessionCancellation, error)
	CreateNote(ctx context.Context, n *SessionNote) error
	ListNotes(ctx context.Context, f NoteFilter) ([]*SessionNote, error)

	// reminders
	CreateReminder(ctx context.Context, r *SessionReminder) error
	ListReminders(ctx context.Context, sessionID uuid.UUID) ([]*SessionReminder, error)
	ListDueReminders(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*SessionReminder, error)
	UpdateReminder(ctx context.Context, r *SessionReminder) error
	DeleteUnsentReminders(ctx context.Context, sessionID uuid.UUID) error

	// WithTx runs fn in a transaction holding exclusive locks on lockKeys for its
	// whole duration. Keys are acquired in sorted order.
	WithTx(ctx context.Context, lockKeys []string, fn func(tx Store) error) error
}

// ScheduleLockKey serializes bookings of one therapist on one date.
func ScheduleLockKey(therapistID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("schedule:%s:%s", therapistID, date.Format(time.DateOnly))
}
