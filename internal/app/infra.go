package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/crypto"
	"github.com/Alijeyrad/simorq_sessions/pkg/database"
	"github.com/Alijeyrad/simorq_sessions/pkg/email"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/meeting"
	"github.com/Alijeyrad/simorq_sessions/pkg/observability"
	redispkg "github.com/Alijeyrad/simorq_sessions/pkg/redis"
	"github.com/Alijeyrad/simorq_sessions/pkg/sms"
	"github.com/Alijeyrad/simorq_sessions/pkg/util/codes"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideEntClient),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideMetrics),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
	fx.Provide(ProvideClock),
	fx.Provide(ProvideBox),
	fx.Provide(ProvideMeetingProvisioner),
)

func ProvideEntClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, err := database.NewClient(context.Background(), database.FromCentralConfig(cfg.Database))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideStore(client *repo.Client) repo.Store {
	return client
}

// ProvideRedis returns nil when redis is disabled; consumers fall back to
// in-process behavior.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(cfg *config.Config) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	enforcer, err := authorize.NewEnforcer(acfg)
	if err != nil {
		return nil, err
	}
	return authorize.New(enforcer, acfg)
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideNatsClient returns nil when NATS is disabled.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if !cfg.Nats.Enabled {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name(cfg.Observability.ServiceName))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn, cfg *config.Config) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNATS(nc, cfg.Nats.SubjectPrefix)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.Setup(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

func ProvideMetrics(p *observability.Provider) (*observability.Metrics, error) {
	if p == nil || p.MeterProvider == nil {
		return observability.NewMetrics(nil)
	}
	return observability.NewMetrics(p.MeterProvider)
}

func ProvideClock() clock.Clock {
	return clock.SystemClock{}
}

func ProvideBox(cfg *config.Config) (*crypto.Box, error) {
	return crypto.NewBox(cfg.Authentication.EncryptionKey)
}

func ProvideMeetingProvisioner(cfg *config.Config) meeting.Provisioner {
	return meeting.NewRandomProvisioner(cfg.Booking.MeetingBaseURL, codes.New(codes.FromCentralConfig(cfg.Codes)))
}
