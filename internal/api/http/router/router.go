package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_sessions/internal/api/http/middleware"
	"github.com/Alijeyrad/simorq_sessions/internal/service/availability"
	"github.com/Alijeyrad/simorq_sessions/internal/service/booking"
	"github.com/Alijeyrad/simorq_sessions/internal/service/catalog"
	"github.com/Alijeyrad/simorq_sessions/internal/service/reminder"
	"github.com/Alijeyrad/simorq_sessions/internal/service/slots"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/simorq_sessions/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client `optional:"true"`
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	CatalogSvc      catalog.Service
	StatsSvc        stats.Service
	SlotSvc         slots.Service
	AvailabilitySvc availability.Service
	BookingSvc      booking.Service
	ReminderSvc     reminder.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr)

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	loc := r.p.Cfg.Scheduling.Location()
	therapistH := handler.NewTherapistHandler(r.p.CatalogSvc, r.p.StatsSvc, r.p.SlotSvc, loc)
	windowH := handler.NewWindowHandler(r.p.AvailabilitySvc)
	sessionH := handler.NewSessionHandler(r.p.BookingSvc, r.p.StatsSvc, r.p.ReminderSvc, loc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerTherapistRoutes(api, therapistH, authRequired, requirePerm)
	r.registerWindowRoutes(api, windowH, authRequired, requirePerm)
	r.registerSessionRoutes(api, sessionH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.Redis == nil {
				return true
			}
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
