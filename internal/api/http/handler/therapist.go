package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/catalog"
	"github.com/Alijeyrad/simorq_sessions/internal/service/slots"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
)

type TherapistHandler struct {
	catalog catalog.Service
	stats   stats.Service
	slots   slots.Service
	loc     *time.Location
}

func NewTherapistHandler(cat catalog.Service, st stats.Service, sl slots.Service, loc *time.Location) *TherapistHandler {
	return &TherapistHandler{catalog: cat, stats: st, slots: sl, loc: loc}
}

// GET /therapists
func (h *TherapistHandler) List(c fiber.Ctx) error {
	var q struct {
		Specialization string `query:"specialization"`
		Accepting      bool   `query:"accepting"`
		Search         string `query:"search"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	list, err := h.catalog.ListTherapists(c.Context(), repo.TherapistFilter{
		Specialization: q.Specialization,
		AcceptingOnly:  q.Accepting,
		Search:         q.Search,
		Page:           pageParams(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// GET /therapists/:id
func (h *TherapistHandler) Get(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	detail, err := h.catalog.GetTherapistDetail(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, detail)
}

// GET /therapists/:id/stats
func (h *TherapistHandler) Stats(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	st, err := h.stats.GetTherapistStats(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	dist, err := h.stats.GetRatingDistribution(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, fiber.Map{"stats": st, "rating_distribution": dist})
}

// GET /therapists/:id/availability?date=
func (h *TherapistHandler) Availability(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	date, valid := parseDate(c.Query("date"), h.loc)
	if !valid {
		return badRequest(c, "date must be YYYY/MM/DD (Jalali) or YYYY-MM-DD")
	}
	day, err := h.slots.GetDay(c.Context(), id, date)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, day)
}

// PUT /therapists/:id/profile
func (h *TherapistHandler) UpsertProfile(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	me, found := callerFrom(c)
	if !found {
		return unauthorized(c)
	}
	if !me.actsFor(id) {
		return forbidden(c)
	}

	var body struct {
		Specializations []string `json:"specializations"`
		HourlyRate      int64    `json:"hourly_rate" validate:"gte=0"`
		IsAccepting     bool     `json:"is_accepting"`
		Bio             string   `json:"bio" validate:"max=4000"`
		YearsExperience int      `json:"years_experience" validate:"gte=0,lte=80"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	t, err := h.catalog.UpsertProfile(c.Context(), catalog.ProfileRequest{
		UserID:          id,
		Specializations: body.Specializations,
		HourlyRate:      body.HourlyRate,
		IsAccepting:     body.IsAccepting,
		Bio:             body.Bio,
		YearsExperience: body.YearsExperience,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, t)
}

// ---------------------------------------------------------------------------
// Session types
// ---------------------------------------------------------------------------

// GET /session-types
func (h *TherapistHandler) ListSessionTypes(c fiber.Ctx) error {
	list, err := h.catalog.ListSessionTypes(c.Context(), true)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// POST /session-types
func (h *TherapistHandler) UpsertSessionType(c fiber.Ctx) error {
	var body struct {
		Name            string `json:"name" validate:"required,max=100"`
		Description     string `json:"description"`
		DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=480"`
		Price           int64  `json:"price" validate:"gte=0"`
		IsActive        *bool  `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	active := body.IsActive == nil || *body.IsActive

	st, err := h.catalog.UpsertSessionType(c.Context(), catalog.SessionTypeRequest{
		Name:            body.Name,
		Description:     body.Description,
		DurationMinutes: body.DurationMinutes,
		Price:           body.Price,
		IsActive:        active,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, st)
}
