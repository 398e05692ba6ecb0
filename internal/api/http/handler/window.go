package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/availability"
)

type WindowHandler struct {
	svc availability.Service
}

func NewWindowHandler(svc availability.Service) *WindowHandler {
	return &WindowHandler{svc: svc}
}

// ownWindow loads the window of :id and checks the caller manages it.
func (h *WindowHandler) ownWindow(c fiber.Ctx) (*repo.AvailabilityWindow, error) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid window id")
	}
	me, found := callerFrom(c)
	if !found {
		return nil, fiber.ErrUnauthorized
	}
	w, err := h.svc.GetWindow(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if !me.actsFor(w.TherapistID) {
		return nil, fiber.ErrForbidden
	}
	return w, nil
}

func (h *WindowHandler) therapistParam(c fiber.Ctx) (uuid.UUID, error) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid therapist id")
	}
	me, found := callerFrom(c)
	if !found {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	if !me.actsFor(id) {
		return uuid.Nil, fiber.ErrForbidden
	}
	return id, nil
}

// GET /therapists/:id/windows
func (h *WindowHandler) List(c fiber.Ctx) error {
	therapistID, err := h.therapistParam(c)
	if err != nil {
		return err
	}
	f := repo.WindowFilter{TherapistID: therapistID, ActiveOnly: c.Query("active") == "true"}
	if d := c.Query("day"); d != "" {
		day := repo.Weekday(d)
		f.DayOfWeek = &day
	}
	list, err := h.svc.ListWindows(c.Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

// POST /therapists/:id/windows
func (h *WindowHandler) Add(c fiber.Ctx) error {
	therapistID, err := h.therapistParam(c)
	if err != nil {
		return err
	}
	var body struct {
		DayOfWeek repo.Weekday   `json:"day_of_week" validate:"required"`
		Start     repo.TimeOfDay `json:"start_time"`
		End       repo.TimeOfDay `json:"end_time" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	w, err := h.svc.AddWindow(c.Context(), availability.AddWindowRequest{
		TherapistID: therapistID,
		DayOfWeek:   body.DayOfWeek,
		Start:       body.Start,
		End:         body.End,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, w)
}

// PATCH /windows/:id
func (h *WindowHandler) Update(c fiber.Ctx) error {
	w, err := h.ownWindow(c)
	if err != nil {
		return err
	}
	var body struct {
		DayOfWeek *repo.Weekday   `json:"day_of_week"`
		Start     *repo.TimeOfDay `json:"start_time"`
		End       *repo.TimeOfDay `json:"end_time"`
		IsActive  *bool           `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	out, err := h.svc.UpdateWindow(c.Context(), w.ID, availability.UpdateWindowRequest{
		DayOfWeek: body.DayOfWeek,
		Start:     body.Start,
		End:       body.End,
		IsActive:  body.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// PATCH /windows/:id/deactivate
func (h *WindowHandler) Deactivate(c fiber.Ctx) error {
	w, err := h.ownWindow(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateWindow(c.Context(), w.ID); err != nil {
		return writeError(c, err)
	}
	return noContent(c)
}

// PATCH /windows/:id/activate
func (h *WindowHandler) Activate(c fiber.Ctx) error {
	w, err := h.ownWindow(c)
	if err != nil {
		return err
	}
	if err := h.svc.ActivateWindow(c.Context(), w.ID); err != nil {
		return writeError(c, err)
	}
	return noContent(c)
}

// DELETE /windows/:id
func (h *WindowHandler) Delete(c fiber.Ctx) error {
	w, err := h.ownWindow(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteWindow(c.Context(), w.ID); err != nil {
		return writeError(c, err)
	}
	return noContent(c)
}
