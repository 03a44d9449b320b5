package cmd

import (
	"fmt"
	"time"

	"sensei-backoffice/internal/auth"
	"sensei-backoffice/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagTokenSubject string
	flagTokenRole    string
	flagTokenName    string
	flagTokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed API token for an operator",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenSubject, "subject", "", "Operator id")
	tokenCmd.Flags().StringVar(&flagTokenRole, "role", string(auth.RoleSecretary), "professor, secretary or admin")
	tokenCmd.Flags().StringVar(&flagTokenName, "name", "", "Display name stored in the token")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 12*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAuth(); err != nil {
		return err
	}
	role, ok := auth.NormalizeRole(flagTokenRole)
	if !ok {
		return fmt.Errorf("token: unknown role %q", flagTokenRole)
	}
	token, err := auth.IssueToken([]byte(cfg.JWTSecret), flagTokenSubject, role, flagTokenName, flagTokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
