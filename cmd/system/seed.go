package system

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_sessions/internal/seed"
	"github.com/Alijeyrad/simorq_sessions/pkg/database"
)

func NewSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, therapists, session types and windows",
		Long: `Load fixture data into the database.

Without --file the built-in demo data is used. Seeding is idempotent: rows are
keyed by the ids in the file and existing windows are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			data, err := loadSeed(file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			client, err := database.NewClient(ctx, database.FromCentralConfig(cfg.Database))
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer client.Close()

			res, err := seed.Apply(ctx, client, data)
			if err != nil {
				return err
			}

			fmt.Printf("Seeded %d users, %d therapists, %d windows, %d session types.\n",
				res.Users, res.Therapists, res.Windows, res.SessionTypes)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (defaults to the built-in demo data)")

	return cmd
}

func loadSeed(path string) (*seed.File, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return seed.Load(f)
}
