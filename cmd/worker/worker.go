package worker

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/app"
	"github.com/Alijeyrad/simorq_sessions/pkg/logs"
)

func NewWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Background workers",
	}

	cmd.AddCommand(newRunCommand(
		"reminders",
		"Deliver due session reminders by SMS, email and NATS",
		app.ReminderModule,
	))
	cmd.AddCommand(newRunCommand(
		"events",
		"Consume session events: status SMS notifications and refund requests",
		app.WorkerModule,
	))

	return cmd
}

func newRunCommand(use, short string, module fx.Option) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}

			slog.SetDefault(logs.New(cfg))
			slog.Info("worker: starting", "worker", use)

			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				module,
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			)

			fxApp.Run()
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for in-flight work on shutdown")

	return cmd
}
