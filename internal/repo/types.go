package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

type Role string

const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleTherapist, RoleAdmin:
		return true
	}
	return false
}

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf maps a Go weekday to its stored token.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdays[d]
}

func (w Weekday) IsValid() bool {
	for _, v := range weekdays {
		if v == w {
			return true
		}
	}
	return false
}

type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusScheduled  SessionStatus = "scheduled"
	StatusConfirmed  SessionStatus = "confirmed"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
	StatusNoShow     SessionStatus = "no_show"
)

// BusyStatuses occupy the therapist's calendar.
var BusyStatuses = []SessionStatus{StatusScheduled, StatusConfirmed, StatusInProgress}

// OpenStatuses are all non-terminal statuses.
var OpenStatuses = []SessionStatus{StatusPending, StatusScheduled, StatusConfirmed, StatusInProgress}

func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s SessionStatus) IsBusy() bool {
	for _, b := range BusyStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type SessionMode string

const (
	ModeOnline   SessionMode = "online"
	ModeInPerson SessionMode = "in_person"
	ModePhone    SessionMode = "phone"
)

func (m SessionMode) IsValid() bool {
	return m == ModeOnline || m == ModeInPerson || m == ModePhone
}

type CancelReason string

const (
	ReasonClientRequest    CancelReason = "client_request"
	ReasonTherapistRequest CancelReason = "therapist_request"
	ReasonEmergency        CancelReason = "emergency"
	ReasonTechnicalIssue   CancelReason = "technical_issue"
	ReasonWeather          CancelReason = "weather"
	ReasonOther            CancelReason = "other"
)

func (r CancelReason) IsValid() bool {
	switch r {
	case ReasonClientRequest, ReasonTherapistRequest, ReasonEmergency,
		ReasonTechnicalIssue, ReasonWeather, ReasonOther:
		return true
	}
	return false
}

type ReminderType string

const (
	ReminderEmail ReminderType = "email"
	ReminderSMS   ReminderType = "sms"
	ReminderPush  ReminderType = "push"
)

func (r ReminderType) IsValid() bool {
	return r == ReminderEmail || r == ReminderSMS || r == ReminderPush
}

type NoteType string

const (
	NoteGeneral    NoteType = "general"
	NoteAssessment NoteType = "assessment"
	NoteTreatment  NoteType = "treatment"
	NoteProgress   NoteType = "progress"
	NoteHomework   NoteType = "homework"
)

func (n NoteType) IsValid() bool {
	switch n {
	case NoteGeneral, NoteAssessment, NoteTreatment, NoteProgress, NoteHomework:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// TimeOfDay
// ---------------------------------------------------------------------------

// TimeOfDay is a wall-clock time in minutes after midnight.
type TimeOfDay int

const MinutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds are ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var h, m, sec int
	n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if n < 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DateOf truncates t to its civil date, returned as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At returns the instant of a civil date and wall-clock time in loc.
func At(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc)
}

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

type User struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type TherapistProfile struct {
	UserID          uuid.UUID `json:"user_id"`
	Specializations []string  `json:"specializations"`
	HourlyRate      int64     `json:"hourly_rate"`
	IsAccepting     bool      `json:"is_accepting"`
	Bio             string    `json:"bio,omitempty"`
	YearsExperience int       `json:"years_experience"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Therapist joins a user with its therapist profile.
type Therapist struct {
	User
	Profile TherapistProfile `json:"profile"`
}

type AvailabilityWindow struct {
	ID          uuid.UUID `json:"id"`
	TherapistID uuid.UUID `json:"therapist_id"`
	DayOfWeek   Weekday   `json:"day_of_week"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionType struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int64     `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type Session struct {
	ID              uuid.UUID     `json:"id"`
	ClientID        uuid.UUID     `json:"client_id"`
	TherapistID     uuid.UUID     `json:"therapist_id"`
	SessionTypeID   uuid.UUID     `json:"session_type_id"`
	Status          SessionStatus `json:"status"`
	Mode            SessionMode   `json:"mode"`
	ScheduledDate   time.Time     `json:"scheduled_date"`
	StartTime       TimeOfDay     `json:"start_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Location        string        `json:"location,omitempty"`
	MeetingLink     string        `json:"meeting_link,omitempty"`
	MeetingID       string        `json:"meeting_id,omitempty"`
	MeetingPassword string        `json:"-"`
	Price           int64         `json:"price"`
	IsPaid          bool          `json:"is_paid"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	TransactionID   string        `json:"transaction_id,omitempty"`
	SessionNotes    string        `json:"session_notes,omitempty"`
	Goals           string        `json:"goals,omitempty"`
	Homework        string        `json:"homework,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
}

// EndTime is the wall-clock end of the session on its scheduled date.
func (s *Session) EndTime() TimeOfDay {
	return s.StartTime + TimeOfDay(s.DurationMinutes)
}

func (s *Session) StartsAt(loc *time.Location) time.Time {
	return At(s.ScheduledDate, s.StartTime, loc)
}

func (s *Session) EndsAt(loc *time.Location) time.Time {
	return s.StartsAt(loc).Add(time.Duration(s.DurationMinutes) * time.Minute)
}

type SessionRating struct {
	ID                uuid.UUID `json:"id"`
	SessionID         uuid.UUID `json:"session_id"`
	ClientID          uuid.UUID `json:"client_id"`
	TherapistID       uuid.UUID `json:"therapist_id"`
	OverallRating     int       `json:"overall_rating"`
	TherapistRating   int       `json:"therapist_rating"`
	EnvironmentRating int       `json:"environment_rating"`
	HelpfulnessRating int       `json:"helpfulness_rating"`
	Comments          string    `json:"comments,omitempty"`
	WouldRecommend    bool      `json:"would_recommend"`
	CreatedAt         time.Time `json:"created_at"`
}

type SessionCancellation struct {
	ID            uuid.UUID    `json:"id"`
	SessionID     uuid.UUID    `json:"session_id"`
	CancelledBy   uuid.UUID    `json:"cancelled_by"`
	Reason        CancelReason `json:"reason"`
	Explanation   string       `json:"explanation,omitempty"`
	RefundAmount  int64        `json:"refund_amount"`
	RefundPercent int          `json:"refund_percent"`
	RefundPolicy  string       `json:"refund_policy"`
	NoticeMinutes int64        `json:"notice_minutes"`
	IsRefunded    bool         `json:"is_refunded"`
	CreatedAt     time.Time    `json:"created_at"`
}

type SessionReminder struct {
	ID            uuid.UUID    `json:"id"`
	SessionID     uuid.UUID    `json:"session_id"`
	Type          ReminderType `json:"reminder_type"`
	ScheduledTime time.Time    `json:"scheduled_time"`
	IsSent        bool         `json:"is_sent"`
	SentAt        *time.Time   `json:"sent_at,omitempty"`
	Attempts      int          `json:"attempts"`
	LastError     string       `json:"last_error,omitempty"`
	// ClaimedUntil hides the reminder from other dispatchers while it is in flight.
	ClaimedUntil *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SessionNote struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Type      NoteType  `json:"note_type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
