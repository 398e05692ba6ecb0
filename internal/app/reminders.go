package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/reminder"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/email"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/observability"
	"github.com/Alijeyrad/simorq_sessions/pkg/sms"
)

// ReminderModule runs the reminder dispatcher loop for the lifetime of the app.
var ReminderModule = fx.Module("reminders",
	fx.Provide(ProvideDispatcher),
	fx.Invoke(RunDispatcher),
)

type DispatcherParams struct {
	fx.In

	Cfg     *config.Config
	Store   repo.Store
	Clock   clock.Clock
	SMS     *sms.Client
	Email   *email.Client
	Events  events.Publisher
	Metrics *observability.Metrics
}

func ProvideDispatcher(p DispatcherParams) *reminder.Dispatcher {
	// Disabled clients stay nil so their reminder type has no sender.
	var smsClient reminder.SMSClient
	if p.SMS != nil && p.SMS.IsEnabled() {
		smsClient = p.SMS
	}
	var emailClient reminder.EmailClient
	if p.Email != nil && p.Email.IsEnabled() {
		emailClient = p.Email
	}
	var pub events.Publisher
	if _, nop := p.Events.(events.Nop); !nop {
		pub = p.Events
	}

	senders := reminder.Senders(smsClient, emailClient, pub, p.Cfg.Reminders.Language)
	return reminder.NewDispatcher(p.Store, senders, p.Clock, p.Cfg.Reminders, p.Cfg.Scheduling.Location(), p.Metrics)
}

func RunDispatcher(lc fx.Lifecycle, cfg *config.Config, d *reminder.Dispatcher) {
	if !cfg.Reminders.Enabled {
		slog.Info("reminder_dispatcher: disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := d.Run(ctx); err != nil {
					slog.Error("reminder_dispatcher: exited", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
