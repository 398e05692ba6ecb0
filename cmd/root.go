package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/simorq_sessions/cmd/http"
	systemcmd "github.com/Alijeyrad/simorq_sessions/cmd/system"
	workercmd "github.com/Alijeyrad/simorq_sessions/cmd/worker"
	"github.com/Alijeyrad/simorq_sessions/pkg/constants"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "Simorq therapy session availability and booking service.",
	Long: `Simorq Sessions publishes therapist availability, books therapy sessions
and tracks them through confirmation, cancellation, refunds, reminders and ratings.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal outside local development.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load env file", "path", envFile, "error", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config is read")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(workercmd.NewWorkerCommand())
}
