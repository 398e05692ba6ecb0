package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/booking"
	"github.com/Alijeyrad/simorq_sessions/internal/service/reminder"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
)

type SessionHandler struct {
	booking   booking.Service
	stats     stats.Service
	reminders reminder.Service
	loc       *time.Location
}

func NewSessionHandler(b booking.Service, st stats.Service, r reminder.Service, loc *time.Location) *SessionHandler {
	return &SessionHandler{booking: b, stats: st, reminders: r, loc: loc}
}

// bookingBody is shared by the client and staff entry points.
type bookingBody struct {
	ClientID      *uuid.UUID     `json:"client_id"`
	TherapistID   uuid.UUID      `json:"therapist_id" validate:"required"`
	SessionTypeID uuid.UUID      `json:"session_type_id" validate:"required"`
	Date          string         `json:"date" validate:"required"`
	Time          repo.TimeOfDay `json:"time"`
	Mode          string         `json:"mode" validate:"omitempty,oneof=online in_person phone"`
	Location      string         `json:"location" validate:"max=500"`
	Goals         string         `json:"goals" validate:"max=2000"`
}

func (h *SessionHandler) bookingRequest(clientID uuid.UUID, body bookingBody) (booking.BookingRequest, bool) {
	date, valid := parseDate(body.Date, h.loc)
	if !valid {
		return booking.BookingRequest{}, false
	}
	mode := repo.SessionMode(body.Mode)
	if mode == "" {
		mode = repo.ModeOnline
	}
	return booking.BookingRequest{
		ClientID:      clientID,
		TherapistID:   body.TherapistID,
		SessionTypeID: body.SessionTypeID,
		Date:          date,
		Time:          body.Time,
		Mode:          mode,
		Location:      body.Location,
		Goals:         body.Goals,
	}, true
}

// session loads the session of :id. Participants may read it; staffOnly
// narrows access to the therapist of the session and admins.
func (h *SessionHandler) session(c fiber.Ctx, staffOnly bool) (*repo.Session, caller, error) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return nil, caller{}, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	me, found := callerFrom(c)
	if !found {
		return nil, caller{}, fiber.ErrUnauthorized
	}
	sess, err := h.booking.GetSession(c.Context(), id)
	if err != nil {
		return nil, me, err
	}
	allowed := me.actsFor(sess.TherapistID) || (!staffOnly && me.ID == sess.ClientID)
	if !allowed {
		return nil, me, fiber.ErrForbidden
	}
	return sess, me, nil
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

// POST /sessions/requests
func (h *SessionHandler) Request(c fiber.Ctx) error {
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	var body bookingBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	clientID := me.ID
	if body.ClientID != nil && me.IsAdmin() {
		clientID = *body.ClientID
	}
	req, valid := h.bookingRequest(clientID, body)
	if !valid {
		return badRequest(c, "date must be YYYY/MM/DD (Jalali) or YYYY-MM-DD")
	}

	sess, err := h.booking.RequestBooking(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, sess)
}

// POST /sessions
func (h *SessionHandler) Create(c fiber.Ctx) error {
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	var body bookingBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	if body.ClientID == nil {
		return badRequest(c, "client_id is required")
	}
	if !me.actsFor(body.TherapistID) {
		return forbidden(c)
	}
	req, valid := h.bookingRequest(*body.ClientID, body)
	if !valid {
		return badRequest(c, "date must be YYYY/MM/DD (Jalali) or YYYY-MM-DD")
	}

	sess, err := h.booking.CreateSession(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, sess)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GET /sessions
func (h *SessionHandler) List(c fiber.Ctx) error {
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	f := repo.SessionFilter{Page: pageParams(c), Newest: c.Query("order") == "newest"}
	for _, st := range splitCSV(c.Query("status")) {
		f.Statuses = append(f.Statuses, repo.SessionStatus(st))
	}
	if v := c.Query("from"); v != "" {
		from, valid := parseDate(v, h.loc)
		if !valid {
			return badRequest(c, "invalid from date")
		}
		f.DateFrom = &from
	}
	if v := c.Query("to"); v != "" {
		to, valid := parseDate(v, h.loc)
		if !valid {
			return badRequest(c, "invalid to date")
		}
		f.DateTo = &to
	}

	switch me.Role {
	case repo.RoleClient:
		f.ClientID = &me.ID
	case repo.RoleTherapist:
		f.TherapistID = &me.ID
	default:
		if id, err := uuid.Parse(c.Query("client_id")); err == nil {
			f.ClientID = &id
		}
		if id, err := uuid.Parse(c.Query("therapist_id")); err == nil {
			f.TherapistID = &id
		}
	}

	list, err := h.booking.ListSessions(c.Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// GET /sessions/summary
func (h *SessionHandler) Summary(c fiber.Ctx) error {
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	clientID := me.ID
	if me.IsAdmin() {
		if id, err := uuid.Parse(c.Query("client_id")); err == nil {
			clientID = id
		}
	}
	sum, err := h.stats.GetClientSummary(c.Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, sum)
}

// GET /sessions/:id
func (h *SessionHandler) Get(c fiber.Ctx) error {
	sess, _, err := h.session(c, false)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

// GET /sessions/:id/meeting
func (h *SessionHandler) Meeting(c fiber.Ctx) error {
	sess, _, err := h.session(c, false)
	if err != nil {
		return err
	}
	creds, err := h.booking.MeetingCredentials(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, creds)
}

// GET /sessions/:id/cancellations
func (h *SessionHandler) Cancellations(c fiber.Ctx) error {
	sess, _, err := h.session(c, false)
	if err != nil {
		return err
	}
	list, err := h.booking.ListCancellations(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// PATCH /sessions/:id/confirm
func (h *SessionHandler) Confirm(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	out, err := h.booking.ConfirmBooking(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/start
func (h *SessionHandler) Start(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	out, err := h.booking.StartSession(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/complete
func (h *SessionHandler) Complete(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	var body struct {
		SessionNotes string `json:"session_notes" validate:"max=10000"`
		Homework     string `json:"homework" validate:"max=4000"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return bindError(c, err)
		}
	}
	out, err := h.booking.CompleteSession(c.Context(), sess.ID, booking.CompleteRequest{
		SessionNotes: body.SessionNotes,
		Homework:     body.Homework,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/no-show
func (h *SessionHandler) NoShow(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	out, err := h.booking.MarkNoShow(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/cancel
func (h *SessionHandler) Cancel(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid session id")
	}
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	var body struct {
		Reason      string `json:"reason" validate:"required"`
		Explanation string `json:"explanation" validate:"max=2000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	out, err := h.booking.CancelSession(c.Context(), booking.CancelRequest{
		SessionID:   id,
		ByUserID:    me.ID,
		Reason:      repo.CancelReason(body.Reason),
		Explanation: body.Explanation,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/reschedule
func (h *SessionHandler) Reschedule(c fiber.Ctx) error {
	sess, _, err := h.session(c, false)
	if err != nil {
		return err
	}
	var body struct {
		Date string         `json:"date" validate:"required"`
		Time repo.TimeOfDay `json:"time"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	date, valid := parseDate(body.Date, h.loc)
	if !valid {
		return badRequest(c, "date must be YYYY/MM/DD (Jalali) or YYYY-MM-DD")
	}

	out, err := h.booking.RescheduleSession(c.Context(), booking.RescheduleRequest{
		SessionID: sess.ID,
		Date:      date,
		Time:      body.Time,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /sessions/:id/paid
func (h *SessionHandler) Paid(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	var body struct {
		Method        string `json:"payment_method" validate:"max=50"`
		TransactionID string `json:"transaction_id" validate:"required,max=100"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	out, err := h.booking.MarkPaid(c.Context(), booking.PaymentRequest{
		SessionID:     sess.ID,
		Method:        body.Method,
		TransactionID: body.TransactionID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// POST /sessions/:id/rating
func (h *SessionHandler) Rate(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid session id")
	}
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	var body struct {
		OverallRating     int    `json:"overall_rating"`
		TherapistRating   int    `json:"therapist_rating"`
		EnvironmentRating int    `json:"environment_rating"`
		HelpfulnessRating int    `json:"helpfulness_rating"`
		Comments          string `json:"comments" validate:"max=2000"`
		WouldRecommend    bool   `json:"would_recommend"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	r, err := h.booking.RateSession(c.Context(), booking.RateRequest{
		SessionID:         id,
		ClientID:          me.ID,
		OverallRating:     body.OverallRating,
		TherapistRating:   body.TherapistRating,
		EnvironmentRating: body.EnvironmentRating,
		HelpfulnessRating: body.HelpfulnessRating,
		Comments:          body.Comments,
		WouldRecommend:    body.WouldRecommend,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, r)
}

// ---------------------------------------------------------------------------
// Notes & reminders
// ---------------------------------------------------------------------------

// GET /sessions/:id/notes
func (h *SessionHandler) ListNotes(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid session id")
	}
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	notes, err := h.booking.ListNotes(c.Context(), id, me.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, notes)
}

// POST /sessions/:id/notes
func (h *SessionHandler) AddNote(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid session id")
	}
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	var body struct {
		Type      string `json:"note_type"`
		Title     string `json:"title" validate:"max=200"`
		Content   string `json:"content" validate:"required"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	n, err := h.booking.AddNote(c.Context(), booking.NoteRequest{
		SessionID: id,
		AuthorID:  me.ID,
		Type:      repo.NoteType(body.Type),
		Title:     body.Title,
		Content:   body.Content,
		IsPrivate: body.IsPrivate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, n)
}

// GET /sessions/:id/reminders
func (h *SessionHandler) ListReminders(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	list, err := h.reminders.ListReminders(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// POST /sessions/:id/reminders
func (h *SessionHandler) ScheduleReminder(c fiber.Ctx) error {
	sess, _, err := h.session(c, true)
	if err != nil {
		return err
	}
	var body struct {
		Type          string    `json:"reminder_type" validate:"required"`
		ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	r, err := h.reminders.ScheduleReminder(c.Context(), sess.ID, repo.ReminderType(body.Type), body.ScheduledTime)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, r)
}
