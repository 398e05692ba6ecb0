package system

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/simorq_sessions/pkg/paseto"
)

func NewTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Long: `Issue a PASETO access token signed with the configured keys.

Useful for local testing; the token carries only the user id and role.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			switch role {
			case "client", "therapist", "admin":
			default:
				return fmt.Errorf("invalid --role %q: want client, therapist or admin", role)
			}

			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to create token manager: %w", err)
			}

			tok, exp, err := mgr.Issue(id, role)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Println(tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (uuid)")
	cmd.Flags().StringVar(&role, "role", "client", "Role claim: client, therapist or admin")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
