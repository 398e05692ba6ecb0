package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
)

func (r *Router) registerWindowRoutes(
	api fiber.Router,
	wh *handler.WindowHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	api.Get("/therapists/:id/windows", authRequired, requirePerm(authorize.ResourceWindow, authorize.ActionList), wh.List)
	api.Post("/therapists/:id/windows", authRequired, requirePerm(authorize.ResourceWindow, authorize.ActionCreate), wh.Add)

	windows := api.Group("/windows", authRequired)

	windows.Patch("/:id", requirePerm(authorize.ResourceWindow, authorize.ActionUpdate), wh.Update)
	windows.Patch("/:id/deactivate", requirePerm(authorize.ResourceWindow, authorize.ActionUpdate), wh.Deactivate)
	windows.Patch("/:id/activate", requirePerm(authorize.ResourceWindow, authorize.ActionUpdate), wh.Activate)
	windows.Delete("/:id", requirePerm(authorize.ResourceWindow, authorize.ActionDelete), wh.Delete)
}
