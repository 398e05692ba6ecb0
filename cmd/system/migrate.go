package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_sessions/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply all pending schema migrations.

With --down only the most recent migration is rolled back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if down {
				fmt.Println("Rolling back the last migration.")
			} else {
				fmt.Println("Running migrations.")
			}
			if err := database.Migrate(ctx, database.FromCentralConfig(cfg.Database), down); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration")

	return cmd
}
