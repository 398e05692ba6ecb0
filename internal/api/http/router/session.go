package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
)

func (r *Router) registerSessionRoutes(
	api fiber.Router,
	sh *handler.SessionHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	sessions := api.Group("/sessions", authRequired)

	sessions.Post("/requests", requirePerm(authorize.ResourceSession, authorize.ActionRequest), sh.Request)
	sessions.Post("/", requirePerm(authorize.ResourceSession, authorize.ActionCreate), sh.Create)
	sessions.Get("/", requirePerm(authorize.ResourceSession, authorize.ActionList), sh.List)
	sessions.Get("/summary", requirePerm(authorize.ResourceStats, authorize.ActionRead), sh.Summary)

	sessions.Get("/:id", requirePerm(authorize.ResourceSession, authorize.ActionRead), sh.Get)
	sessions.Get("/:id/meeting", requirePerm(authorize.ResourceSession, authorize.ActionRead), sh.Meeting)
	sessions.Get("/:id/cancellations", requirePerm(authorize.ResourceSession, authorize.ActionRead), sh.Cancellations)

	sessions.Patch("/:id/confirm", requirePerm(authorize.ResourceSession, authorize.ActionConfirm), sh.Confirm)
	sessions.Patch("/:id/start", requirePerm(authorize.ResourceSession, authorize.ActionStart), sh.Start)
	sessions.Patch("/:id/complete", requirePerm(authorize.ResourceSession, authorize.ActionComplete), sh.Complete)
	sessions.Patch("/:id/no-show", requirePerm(authorize.ResourceSession, authorize.ActionNoShow), sh.NoShow)
	sessions.Patch("/:id/cancel", requirePerm(authorize.ResourceSession, authorize.ActionCancel), sh.Cancel)
	sessions.Patch("/:id/reschedule", requirePerm(authorize.ResourceSession, authorize.ActionReschedule), sh.Reschedule)
	sessions.Patch("/:id/paid", requirePerm(authorize.ResourceSession, authorize.ActionPay), sh.Paid)

	sessions.Post("/:id/rating", requirePerm(authorize.ResourceSession, authorize.ActionRate), sh.Rate)

	sessions.Get("/:id/notes", requirePerm(authorize.ResourceNote, authorize.ActionRead), sh.ListNotes)
	sessions.Post("/:id/notes", requirePerm(authorize.ResourceNote, authorize.ActionCreate), sh.AddNote)

	sessions.Get("/:id/reminders", requirePerm(authorize.ResourceReminder, authorize.ActionList), sh.ListReminders)
	sessions.Post("/:id/reminders", requirePerm(authorize.ResourceReminder, authorize.ActionCreate), sh.ScheduleReminder)
}
