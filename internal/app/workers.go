package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/jalali"
	svcsms "github.com/Alijeyrad/simorq_sessions/pkg/sms"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc    fx.Lifecycle
	Cfg   *config.Config
	NC    *nats.Conn
	Store repo.Store
	SMS   *svcsms.Client
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		slog.Info("workers: nats disabled, event workers not started")
		return
	}
	prefix := p.Cfg.Nats.SubjectPrefix
	n := &statusNotifier{store: p.Store, sms: p.SMS, loc: p.Cfg.Scheduling.Location()}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startNotificationWorker(p.NC, prefix, n)
			startRefundWorker(p.NC, prefix)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

// notifiedEvents are the lifecycle events a client is told about by SMS.
var notifiedEvents = map[string]string{
	events.EventConfirmed:   "تایید شد",
	events.EventCancelled:   "لغو شد",
	events.EventRescheduled: "جابجا شد",
}

type StatusSender interface {
	SendStatusUpdate(ctx context.Context, phoneNumber string, p svcsms.StatusParams) error
}

type statusNotifier struct {
	store repo.Store
	sms   StatusSender
	loc   *time.Location
}

// handle sends the status SMS of ev. Events nobody is notified about and
// clients without a phone number are ignored.
func (n *statusNotifier) handle(ctx context.Context, ev events.SessionEvent) error {
	status, ok := notifiedEvents[ev.Event]
	if !ok {
		return nil
	}
	client, err := n.store.GetUser(ctx, ev.ClientID)
	if err != nil {
		return err
	}
	if client.Phone == "" {
		return nil
	}
	startsAt := ev.StartsAt.In(n.loc)
	return n.sms.SendStatusUpdate(ctx, client.Phone, svcsms.StatusParams{
		Name:   client.FullName,
		Status: status,
		Date:   jalali.Format(startsAt, jalali.LayoutDate),
		Time:   startsAt.Format("15:04"),
	})
}

func startNotificationWorker(nc *nats.Conn, prefix string, n *statusNotifier) {
	_, err := nc.Subscribe(prefix+"sessions.*.*", func(msg *nats.Msg) {
		var ev events.SessionEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("notification_worker: bad payload", "subject", msg.Subject, "err", err)
			return
		}
		if err := n.handle(context.Background(), ev); err != nil {
			slog.Warn("notification_worker: status sms failed", "session_id", ev.SessionID, "event", ev.Event, "err", err)
		}
	})
	if err != nil {
		slog.Error("notification_worker: subscribe sessions.*.* failed", "err", err)
	}

	slog.Info("notification_worker: started")
}

// ---------------------------------------------------------------------------
// refund_worker
// ---------------------------------------------------------------------------

func startRefundWorker(nc *nats.Conn, prefix string) {
	_, err := nc.Subscribe(prefix+events.SubjectRefundRequested, func(msg *nats.Msg) {
		var ev events.RefundRequested
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("refund_worker: bad payload", "err", err)
			return
		}
		// The payment gateway settles the refund; this records the request
		// for finance reconciliation.
		slog.Info("refund_worker: refund requested",
			"session_id", ev.SessionID,
			"cancellation_id", ev.CancellationID,
			"client_id", ev.ClientID,
			"amount", ev.Amount,
			"percent", ev.Percent,
			"policy", ev.Policy,
		)
	})
	if err != nil {
		slog.Error("refund_worker: subscribe refund.requested failed", "err", err)
	}

	slog.Info("refund_worker: started")
}
