package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/availability"
	"github.com/Alijeyrad/simorq_sessions/internal/service/booking"
	"github.com/Alijeyrad/simorq_sessions/internal/service/catalog"
	"github.com/Alijeyrad/simorq_sessions/internal/service/reminder"
	"github.com/Alijeyrad/simorq_sessions/internal/service/slots"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/constants"
	"github.com/Alijeyrad/simorq_sessions/pkg/crypto"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/meeting"
	"github.com/Alijeyrad/simorq_sessions/pkg/observability"
	pasetotoken "github.com/Alijeyrad/simorq_sessions/pkg/paseto"
	redispkg "github.com/Alijeyrad/simorq_sessions/pkg/redis"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSlotService,
		ProvideAvailabilityService,
		ProvideReminderService,
		ProvideBookingService,
		ProvideStatsService,
		ProvideCatalogService,
		ProvidePasetoManager,
	),
)

func ProvideSlotService(store repo.Store, rdb *redis.Client, cfg *config.Config) slots.Service {
	var cache slots.Cache
	if rdb != nil {
		cache = redispkg.NewCache(rdb, constants.AppName+":slots:")
	}
	return slots.New(store, cache, cfg.Scheduling)
}

func ProvideAvailabilityService(store repo.Store, slotSvc slots.Service) availability.Service {
	return availability.New(store, slotSvc)
}

func ProvideReminderService(store repo.Store, clk clock.Clock, cfg *config.Config) reminder.Service {
	return reminder.New(store, clk, cfg.Reminders, cfg.Scheduling.Location())
}

type BookingParams struct {
	fx.In

	Cfg       *config.Config
	Store     repo.Store
	Clock     clock.Clock
	Meetings  meeting.Provisioner
	Box       *crypto.Box
	Events    events.Publisher
	Reminders reminder.Service
	Slots     slots.Service
	Metrics   *observability.Metrics
}

func ProvideBookingService(p BookingParams) booking.Service {
	return booking.New(booking.Deps{
		Store:      p.Store,
		Clock:      p.Clock,
		Meetings:   p.Meetings,
		Sealer:     p.Box,
		Events:     p.Events,
		Reminders:  p.Reminders,
		Slots:      p.Slots,
		Metrics:    p.Metrics,
		Booking:    p.Cfg.Booking,
		Scheduling: p.Cfg.Scheduling,
	})
}

func ProvideStatsService(store repo.Store, clk clock.Clock, cfg *config.Config) stats.Service {
	return stats.New(store, clk, cfg.Scheduling.Location())
}

func ProvideCatalogService(store repo.Store, statsSvc stats.Service) catalog.Service {
	return catalog.New(store, statsSvc)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
