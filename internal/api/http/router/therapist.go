package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
)

func (r *Router) registerTherapistRoutes(
	api fiber.Router,
	th *handler.TherapistHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	// Public catalog
	api.Get("/therapists", th.List)
	api.Get("/therapists/:id", th.Get)
	api.Get("/therapists/:id/stats", th.Stats)
	api.Get("/therapists/:id/availability", th.Availability)
	api.Get("/session-types", th.ListSessionTypes)

	api.Put("/therapists/:id/profile", authRequired, requirePerm(authorize.ResourceTherapist, authorize.ActionUpdate), th.UpsertProfile)
	api.Post("/session-types", authRequired, requirePerm(authorize.ResourceSessionType, authorize.ActionCreate), th.UpsertSessionType)
}
