package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/slots"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/meeting"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookingRequest struct {
	ClientID      uuid.UUID
	TherapistID   uuid.UUID
	SessionTypeID uuid.UUID
	Date          time.Time
	Time          repo.TimeOfDay
	Mode          repo.SessionMode
	Location      string
	Goals         string
}

type CancelRequest struct {
	SessionID   uuid.UUID
	ByUserID    uuid.UUID
	Reason      repo.CancelReason
	Explanation string
}

type CompleteRequest struct {
	SessionNotes string
	Homework     string
}

type RateRequest struct {
	SessionID         uuid.UUID
	ClientID          uuid.UUID
	OverallRating     int
	TherapistRating   int
	EnvironmentRating int
	HelpfulnessRating int
	Comments          string
	WouldRecommend    bool
}

type RescheduleRequest struct {
	SessionID uuid.UUID
	Date      time.Time
	Time      repo.TimeOfDay
}

type NoteRequest struct {
	SessionID uuid.UUID
	AuthorID  uuid.UUID
	Type      repo.NoteType
	Title     string
	Content   string
	IsPrivate bool
}

type PaymentRequest struct {
	SessionID     uuid.UUID
	Method        string
	TransactionID string
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// ReminderPlanner creates reminder records inside the booking transaction.
type ReminderPlanner interface {
	PlanDefaults(ctx context.Context, tx repo.Store, s *repo.Session) error
	Replan(ctx context.Context, tx repo.Store, s *repo.Session) error
}

type SlotInvalidator interface {
	Invalidate(ctx context.Context, therapistID uuid.UUID)
}

type Metrics interface {
	Transition(ctx context.Context, from, to string)
	Conflict(ctx context.Context, op string)
}

// Sealer encrypts meeting passwords at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(encoded string) (string, error)
}

type Deps struct {
	Store      repo.Store
	Clock      clock.Clock
	Meetings   meeting.Provisioner
	Sealer     Sealer
	Events     events.Publisher
	Reminders  ReminderPlanner
	Slots      SlotInvalidator
	Metrics    Metrics
	Booking    config.BookingConfig
	Scheduling config.SchedulingConfig
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// RequestBooking is the client entry point; it creates a pending session.
	RequestBooking(ctx context.Context, req BookingRequest) (*repo.Session, error)
	// CreateSession is the staff entry point; it creates a scheduled session.
	CreateSession(ctx context.Context, req BookingRequest) (*repo.Session, error)

	ConfirmBooking(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error)
	StartSession(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID, req CompleteRequest) (*repo.Session, error)
	MarkNoShow(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error)
	CancelSession(ctx context.Context, req CancelRequest) (*repo.SessionCancellation, error)
	RescheduleSession(ctx context.Context, req RescheduleRequest) (*repo.Session, error)
	RateSession(ctx context.Context, req RateRequest) (*repo.SessionRating, error)
	MarkPaid(ctx context.Context, req PaymentRequest) (*repo.Session, error)

	AddNote(ctx context.Context, req NoteRequest) (*repo.SessionNote, error)
	ListNotes(ctx context.Context, sessionID, viewerID uuid.UUID) ([]*repo.SessionNote, error)

	GetSession(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error)
	ListSessions(ctx context.Context, f repo.SessionFilter) ([]*repo.Session, error)
	ListCancellations(ctx context.Context, sessionID uuid.UUID) ([]*repo.SessionCancellation, error)
	MeetingCredentials(ctx context.Context, sessionID uuid.UUID) (meeting.Credentials, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type bookingService struct {
	store     repo.Store
	clock     clock.Clock
	meetings  meeting.Provisioner
	sealer    Sealer
	events    events.Publisher
	reminders ReminderPlanner
	slots     SlotInvalidator
	metrics   Metrics
	policy    RefundPolicy
	sched     config.SchedulingConfig
	loc       *time.Location
}

func New(d Deps) Service {
	s := &bookingService{
		store:     d.Store,
		clock:     d.Clock,
		meetings:  d.Meetings,
		sealer:    d.Sealer,
		events:    d.Events,
		reminders: d.Reminders,
		slots:     d.Slots,
		metrics:   d.Metrics,
		policy:    PolicyFromConfig(d.Booking),
		sched:     d.Scheduling,
		loc:       d.Scheduling.Location(),
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.reminders == nil {
		s.reminders = nopPlanner{}
	}
	if s.slots == nil {
		s.slots = nopInvalidator{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	return s
}

type nopPlanner struct{}

func (nopPlanner) PlanDefaults(context.Context, repo.Store, *repo.Session) error { return nil }
func (nopPlanner) Replan(context.Context, repo.Store, *repo.Session) error { return nil }

type nopMetrics struct{}

func (nopMetrics) Transition(context.Context, string, string) {}
func (nopMetrics) Conflict(context.Context, string) {}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

func (s *bookingService) RequestBooking(ctx context.Context, req BookingRequest) (*repo.Session, error) {
	return s.create(ctx, req, repo.StatusPending)
}

func (s *bookingService) CreateSession(ctx context.Context, req BookingRequest) (*repo.Session, error) {
	return s.create(ctx, req, repo.StatusScheduled)
}

func (s *bookingService) create(ctx context.Context, req BookingRequest, status repo.SessionStatus) (*repo.Session, error) {
	op, event := "request_booking", events.EventRequested
	if status == repo.StatusScheduled {
		op, event = "create_session", events.EventScheduled
	}

	if req.Mode == "" {
		req.Mode = repo.ModeOnline
	}
	if !req.Mode.IsValid() {
		return nil, ErrInvalidMode
	}
	date := repo.DateOf(req.Date)
	if err := s.checkTime(date, req.Time); err != nil {
		return nil, err
	}

	client, err := s.store.GetUser(ctx, req.ClientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrClientNotFound
		}
		return nil, errs.Wrap(err, "get client")
	}
	if !client.IsActive {
		return nil, ErrClientInactive
	}

	therapist, err := s.store.GetTherapist(ctx, req.TherapistID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get therapist")
	}
	if !therapist.IsActive || !therapist.Profile.IsAccepting {
		return nil, ErrTherapistNotAccepting
	}

	st, err := s.store.GetSessionType(ctx, req.SessionTypeID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionTypeNotFound
		}
		return nil, errs.Wrap(err, "get session type")
	}
	if !st.IsActive {
		return nil, ErrSessionTypeInactive
	}

	sess := &repo.Session{
		ID:              uuid.Must(uuid.NewV7()),
		ClientID:        client.ID,
		TherapistID:     therapist.ID,
		SessionTypeID:   st.ID,
		Status:          status,
		Mode:            req.Mode,
		ScheduledDate:   date,
		StartTime:       req.Time,
		DurationMinutes: st.DurationMinutes,
		Price:           st.Price,
		Location:        req.Location,
		Goals:           req.Goals,
	}
	if sess.Mode == repo.ModeOnline {
		if err := s.provisionMeeting(ctx, sess); err != nil {
			return nil, err
		}
	}

	err = s.store.WithTx(ctx, []string{repo.ScheduleLockKey(sess.TherapistID, date)}, func(tx repo.Store) error {
		if err := checkDuplicate(ctx, tx, sess); err != nil {
			return err
		}
		if err := s.checkSlot(ctx, tx, sess, op); err != nil {
			return err
		}
		if err := tx.CreateSession(ctx, sess); err != nil {
			return s.writeErr(ctx, err, op)
		}
		if status == repo.StatusScheduled {
			return s.reminders.PlanDefaults(ctx, tx, sess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("booking: session created",
		"session_id", sess.ID, "status", sess.Status, "therapist_id", sess.TherapistID,
		"date", sess.ScheduledDate.Format(time.DateOnly), "start", sess.StartTime.String())
	s.after(ctx, sess, "", event)
	return sess, nil
}

func (s *bookingService) checkTime(date time.Time, start repo.TimeOfDay) error {
	if start < 0 || start >= repo.MinutesPerDay {
		return errs.Validation("invalid start time %d", int(start))
	}
	now := s.clock.Now()
	if !repo.At(date, start, s.loc).After(now) {
		return ErrPastDate
	}
	if n := s.sched.MaxBookingDaysOut; n > 0 {
		today := repo.DateOf(now.In(s.loc))
		if date.After(today.AddDate(0, 0, n)) {
			return ErrTooFarOut
		}
	}
	return nil
}

// checkDuplicate rejects a second open session of the same client with the
// same therapist at the same date and time.
func checkDuplicate(ctx context.Context, tx repo.Store, sess *repo.Session) error {
	same, err := tx.ListSessions(ctx, repo.SessionFilter{
		ClientID:    &sess.ClientID,
		TherapistID: &sess.TherapistID,
		Statuses:    repo.OpenStatuses,
		DateFrom:    &sess.ScheduledDate,
		DateTo:      &sess.ScheduledDate,
		Unpaged:     true,
	})
	if err != nil {
		return errs.Wrap(err, "list client sessions")
	}
	for _, o := range same {
		if o.ID != sess.ID && o.StartTime == sess.StartTime {
			return ErrDuplicateBooking
		}
	}
	return nil
}

// checkSlot is the authoritative conflict check. It must run under the
// schedule lock of the session's therapist and date.
func (s *bookingService) checkSlot(ctx context.Context, tx repo.Store, sess *repo.Session, op string) error {
	iv := slots.Interval{Start: sess.StartTime, End: sess.EndTime()}
	ok, err := slots.IsFree(ctx, tx, sess.TherapistID, sess.ScheduledDate, iv, sess.ID, s.sched.SlotMinutes)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.Conflict(ctx, op)
		return ErrSlotUnavailable
	}
	return nil
}

func (s *bookingService) writeErr(ctx context.Context, err error, op string) error {
	switch {
	case repo.IsConflict(err):
		s.metrics.Conflict(ctx, op)
		return ErrSlotUnavailable
	case repo.IsDuplicate(err):
		return ErrDuplicateBooking
	case repo.IsNotFound(err):
		return ErrSessionNotFound
	}
	return errs.Wrap(err, op)
}

func (s *bookingService) provisionMeeting(ctx context.Context, sess *repo.Session) error {
	if s.meetings == nil {
		return nil
	}
	creds, err := s.meetings.Provision(ctx, sess.ID)
	if err != nil {
		return errs.Wrap(err, "provision meeting")
	}
	password := creds.Password
	if s.sealer != nil {
		if password, err = s.sealer.Seal(password); err != nil {
			return errs.Wrap(err, "seal meeting password")
		}
	}
	sess.MeetingLink = creds.Link
	sess.MeetingID = creds.ID
	sess.MeetingPassword = password
	return nil
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// withSession locks the schedule of the session's therapist and date, plus any
// extra keys, and runs fn against a fresh copy read under the lock.
func (s *bookingService) withSession(ctx context.Context, id uuid.UUID, extra []string, fn func(tx repo.Store, sess *repo.Session) error) error {
	for attempt := 0; attempt < 3; attempt++ {
		cur, err := s.GetSession(ctx, id)
		if err != nil {
			return err
		}
		key := repo.ScheduleLockKey(cur.TherapistID, cur.ScheduledDate)
		moved := false
		err = s.store.WithTx(ctx, append([]string{key}, extra...), func(tx repo.Store) error {
			sess, err := tx.GetSession(ctx, id)
			if err != nil {
				if repo.IsNotFound(err) {
					return ErrSessionNotFound
				}
				return errs.Wrap(err, "get session")
			}
			// rescheduled between the read and the lock
			if repo.ScheduleLockKey(sess.TherapistID, sess.ScheduledDate) != key {
				moved = true
				return nil
			}
			return fn(tx, sess)
		})
		if err != nil || !moved {
			return err
		}
	}
	return &errs.Fault{Op: "lock session", Err: errors.New("session moved while acquiring its lock")}
}

func (s *bookingService) transition(ctx context.Context, id uuid.UUID, to repo.SessionStatus, event string, fn func(tx repo.Store, sess *repo.Session) error) (*repo.Session, error) {
	var (
		out  *repo.Session
		from repo.SessionStatus
	)
	err := s.withSession(ctx, id, nil, func(tx repo.Store, sess *repo.Session) error {
		if !CanTransition(sess.Status, to) {
			return fmt.Errorf("%s to %s: %w", sess.Status, to, ErrInvalidTransition)
		}
		from = sess.Status
		sess.Status = to
		if fn != nil {
			if err := fn(tx, sess); err != nil {
				return err
			}
		}
		if err := tx.UpdateSession(ctx, sess); err != nil {
			return s.writeErr(ctx, err, "update session")
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("booking: session status changed", "session_id", id, "from", from, "to", to)
	s.after(ctx, out, from, event)
	return out, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error) {
	return s.transition(ctx, sessionID, repo.StatusConfirmed, events.EventConfirmed, func(tx repo.Store, sess *repo.Session) error {
		if err := s.checkSlot(ctx, tx, sess, "confirm_booking"); err != nil {
			return err
		}
		return s.reminders.PlanDefaults(ctx, tx, sess)
	})
}

func (s *bookingService) StartSession(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error) {
	return s.transition(ctx, sessionID, repo.StatusInProgress, events.EventStarted, func(_ repo.Store, sess *repo.Session) error {
		now := s.clock.Now()
		sess.StartedAt = &now
		return nil
	})
}

func (s *bookingService) CompleteSession(ctx context.Context, sessionID uuid.UUID, req CompleteRequest) (*repo.Session, error) {
	return s.transition(ctx, sessionID, repo.StatusCompleted, events.EventCompleted, func(_ repo.Store, sess *repo.Session) error {
		now := s.clock.Now()
		sess.EndedAt = &now
		if req.SessionNotes != "" {
			sess.SessionNotes = req.SessionNotes
		}
		if req.Homework != "" {
			sess.Homework = req.Homework
		}
		return nil
	})
}

func (s *bookingService) MarkNoShow(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error) {
	return s.transition(ctx, sessionID, repo.StatusNoShow, events.EventNoShow, nil)
}

func (s *bookingService) CancelSession(ctx context.Context, req CancelRequest) (*repo.SessionCancellation, error) {
	if !req.Reason.IsValid() {
		return nil, ErrInvalidReason
	}
	actor, err := s.store.GetUser(ctx, req.ByUserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errs.Wrap(err, "get user")
	}

	var (
		out  *repo.SessionCancellation
		sess *repo.Session
		from repo.SessionStatus
	)
	err = s.withSession(ctx, req.SessionID, nil, func(tx repo.Store, cur *repo.Session) error {
		isTherapist := actor.ID == cur.TherapistID
		if actor.ID != cur.ClientID && !isTherapist && actor.Role != repo.RoleAdmin {
			return ErrNotSessionUser
		}
		if !CanTransition(cur.Status, repo.StatusCancelled) {
			return fmt.Errorf("cancel %s session: %w", cur.Status, ErrInvalidTransition)
		}

		byProvider := isTherapist || actor.Role == repo.RoleAdmin || req.Reason == repo.ReasonTherapistRequest
		refund := s.policy.Compute(cur.Price, cur.StartsAt(s.loc), s.clock.Now(), byProvider)

		from = cur.Status
		cur.Status = repo.StatusCancelled
		if err := tx.UpdateSession(ctx, cur); err != nil {
			return s.writeErr(ctx, err, "update session")
		}

		c := &repo.SessionCancellation{
			SessionID:     cur.ID,
			CancelledBy:   actor.ID,
			Reason:        req.Reason,
			Explanation:   req.Explanation,
			RefundAmount:  refund.Amount,
			RefundPercent: refund.Percent,
			RefundPolicy:  refund.Policy,
			NoticeMinutes: int64(refund.Notice / time.Minute),
		}
		if err := tx.CreateCancellation(ctx, c); err != nil {
			return errs.Wrap(err, "create cancellation")
		}
		out, sess = c, cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("booking: session cancelled",
		"session_id", sess.ID, "by", actor.ID, "reason", out.Reason,
		"refund_amount", out.RefundAmount, "refund_policy", out.RefundPolicy)
	s.after(ctx, sess, from, events.EventCancelled)
	if out.RefundAmount > 0 {
		s.publish(ctx, events.SubjectRefundRequested, events.RefundRequested{
			SessionID:      sess.ID,
			CancellationID: out.ID,
			ClientID:       sess.ClientID,
			Amount:         out.RefundAmount,
			Percent:        out.RefundPercent,
			Policy:         out.RefundPolicy,
			At:             out.CreatedAt,
		})
	}
	return out, nil
}

func (s *bookingService) RescheduleSession(ctx context.Context, req RescheduleRequest) (*repo.Session, error) {
	date := repo.DateOf(req.Date)
	if err := s.checkTime(date, req.Time); err != nil {
		return nil, err
	}
	cur, err := s.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	var out *repo.Session
	newKey := repo.ScheduleLockKey(cur.TherapistID, date)
	err = s.withSession(ctx, req.SessionID, []string{newKey}, func(tx repo.Store, sess *repo.Session) error {
		if !reschedulable(sess.Status) {
			return fmt.Errorf("reschedule %s session: %w", sess.Status, ErrInvalidTransition)
		}
		sess.ScheduledDate = date
		sess.StartTime = req.Time
		if err := checkDuplicate(ctx, tx, sess); err != nil {
			return err
		}
		if err := s.checkSlot(ctx, tx, sess, "reschedule_session"); err != nil {
			return err
		}
		if err := tx.UpdateSession(ctx, sess); err != nil {
			return s.writeErr(ctx, err, "reschedule_session")
		}
		if sess.Status != repo.StatusPending {
			if err := s.reminders.Replan(ctx, tx, sess); err != nil {
				return err
			}
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("booking: session rescheduled",
		"session_id", out.ID, "date", out.ScheduledDate.Format(time.DateOnly), "start", out.StartTime.String())
	s.after(ctx, out, out.Status, events.EventRescheduled)
	return out, nil
}

// ---------------------------------------------------------------------------
// Ratings & payment
// ---------------------------------------------------------------------------

func (s *bookingService) RateSession(ctx context.Context, req RateRequest) (*repo.SessionRating, error) {
	for _, v := range []int{req.OverallRating, req.TherapistRating, req.EnvironmentRating, req.HelpfulnessRating} {
		if v < 1 || v > 5 {
			return nil, ErrInvalidRating
		}
	}

	var (
		out  *repo.SessionRating
		sess *repo.Session
	)
	err := s.withSession(ctx, req.SessionID, nil, func(tx repo.Store, cur *repo.Session) error {
		if cur.ClientID != req.ClientID {
			return ErrNotClient
		}
		if cur.Status != repo.StatusCompleted {
			return fmt.Errorf("rate %s session: %w", cur.Status, ErrInvalidTransition)
		}
		if _, err := tx.GetRatingBySession(ctx, cur.ID); err == nil {
			return ErrAlreadyRated
		} else if !repo.IsNotFound(err) {
			return errs.Wrap(err, "get rating")
		}

		r := &repo.SessionRating{
			SessionID:         cur.ID,
			ClientID:          cur.ClientID,
			TherapistID:       cur.TherapistID,
			OverallRating:     req.OverallRating,
			TherapistRating:   req.TherapistRating,
			EnvironmentRating: req.EnvironmentRating,
			HelpfulnessRating: req.HelpfulnessRating,
			Comments:          req.Comments,
			WouldRecommend:    req.WouldRecommend,
		}
		if err := tx.CreateRating(ctx, r); err != nil {
			if repo.IsDuplicate(err) {
				return ErrAlreadyRated
			}
			return errs.Wrap(err, "create rating")
		}
		out, sess = r, cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.after(ctx, sess, sess.Status, events.EventRated)
	return out, nil
}

func (s *bookingService) MarkPaid(ctx context.Context, req PaymentRequest) (*repo.Session, error) {
	if req.TransactionID == "" {
		return nil, errs.Validation("transaction id is required")
	}

	var (
		out     *repo.Session
		changed bool
	)
	err := s.withSession(ctx, req.SessionID, nil, func(tx repo.Store, sess *repo.Session) error {
		if sess.Status == repo.StatusCancelled {
			return fmt.Errorf("pay %s session: %w", sess.Status, ErrInvalidTransition)
		}
		out = sess
		if sess.IsPaid {
			if sess.TransactionID == req.TransactionID {
				return nil
			}
			return ErrAlreadyPaid
		}
		sess.IsPaid = true
		sess.PaymentMethod = req.Method
		sess.TransactionID = req.TransactionID
		if err := tx.UpdateSession(ctx, sess); err != nil {
			return s.writeErr(ctx, err, "update session")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		slog.Info("booking: session paid", "session_id", out.ID, "transaction_id", out.TransactionID)
		s.after(ctx, out, out.Status, events.EventPaid)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

func (s *bookingService) AddNote(ctx context.Context, req NoteRequest) (*repo.SessionNote, error) {
	if req.Type == "" {
		req.Type = repo.NoteGeneral
	}
	if !req.Type.IsValid() {
		return nil, ErrInvalidNoteType
	}
	if req.Content == "" {
		return nil, ErrEmptyNote
	}
	sess, err := s.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if req.AuthorID != sess.TherapistID {
		admin, err := s.isAdmin(ctx, req.AuthorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrNotNoteAuthor
		}
	}

	n := &repo.SessionNote{
		SessionID: sess.ID,
		AuthorID:  req.AuthorID,
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, errs.Wrap(err, "create note")
	}
	return n, nil
}

// ListNotes hides private notes from the client of the session.
func (s *bookingService) ListNotes(ctx context.Context, sessionID, viewerID uuid.UUID) ([]*repo.SessionNote, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var includePrivate bool
	switch viewerID {
	case sess.TherapistID:
		includePrivate = true
	case sess.ClientID:
	default:
		admin, err := s.isAdmin(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrNotSessionUser
		}
		includePrivate = true
	}

	notes, err := s.store.ListNotes(ctx, repo.NoteFilter{SessionID: sessionID, IncludePrivate: includePrivate})
	if err != nil {
		return nil, errs.Wrap(err, "list notes")
	}
	return notes, nil
}

func (s *bookingService) isAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return false, nil
		}
		return false, errs.Wrap(err, "get user")
	}
	return u.Role == repo.RoleAdmin && u.IsActive, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *bookingService) GetSession(ctx context.Context, sessionID uuid.UUID) (*repo.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, errs.Wrap(err, "get session")
	}
	return sess, nil
}

func (s *bookingService) ListSessions(ctx context.Context, f repo.SessionFilter) ([]*repo.Session, error) {
	for _, st := range f.Statuses {
		if !st.IsValid() {
			return nil, ErrInvalidStatus
		}
	}
	list, err := s.store.ListSessions(ctx, f)
	if err != nil {
		return nil, errs.Wrap(err, "list sessions")
	}
	return list, nil
}

func (s *bookingService) ListCancellations(ctx context.Context, sessionID uuid.UUID) ([]*repo.SessionCancellation, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.store.ListCancellations(ctx, sessionID)
	if err != nil {
		return nil, errs.Wrap(err, "list cancellations")
	}
	return list, nil
}

func (s *bookingService) MeetingCredentials(ctx context.Context, sessionID uuid.UUID) (meeting.Credentials, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return meeting.Credentials{}, err
	}
	creds := meeting.Credentials{Link: sess.MeetingLink, ID: sess.MeetingID, Password: sess.MeetingPassword}
	if creds.Password != "" && s.sealer != nil {
		if creds.Password, err = s.sealer.Open(creds.Password); err != nil {
			return meeting.Credentials{}, errs.Wrap(err, "open meeting password")
		}
	}
	return creds, nil
}

// ---------------------------------------------------------------------------
// Side effects
// ---------------------------------------------------------------------------

// after runs the post-commit effects of a mutation. Failures are logged only.
func (s *bookingService) after(ctx context.Context, sess *repo.Session, from repo.SessionStatus, event string) {
	if from != sess.Status {
		s.metrics.Transition(ctx, string(from), string(sess.Status))
	}
	s.slots.Invalidate(ctx, sess.TherapistID)
	s.publish(ctx, events.SessionSubject(event, sess.ID), events.SessionEvent{
		Event:       event,
		SessionID:   sess.ID,
		ClientID:    sess.ClientID,
		TherapistID: sess.TherapistID,
		Status:      string(sess.Status),
		StartsAt:    sess.StartsAt(s.loc),
		At:          s.clock.Now(),
	})
}

func (s *bookingService) publish(ctx context.Context, subject string, v any) {
	if err := s.events.Publish(ctx, subject, v); err != nil {
		slog.Warn("booking: publish failed", "subject", subject, "error", err)
	}
}
