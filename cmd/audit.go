package cmd

import (
	"fmt"

	"sensei-backoffice/internal/audit"
	"sensei-backoffice/internal/cli"
	"sensei-backoffice/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagAuditAction string
	flagAuditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent operator actions",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&flagAuditAction, "action", "", "Only actions starting with this prefix (e.g. finance., billing.)")
	auditCmd.Flags().IntVarP(&flagAuditLimit, "limit", "n", 50, "Maximum rows")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(c *cobra.Command, _ []string) error {
	ctx := commandContext(c)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := audit.NewRepository(db).Recent(ctx, flagAuditAction, flagAuditLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("  No audit entries.")
		return nil
	}
	t := cli.Table{Headers: []string{"When", "Actor", "Role", "Action", "Resource", "Details"}}
	for _, e := range entries {
		actor := e.Actor
		if e.ActorName != "" {
			actor = e.ActorName + " (" + e.Actor + ")"
		}
		t.Rows = append(t.Rows, []string{
			e.CreatedAt.In(cfg.Location).Format("02/01/2006 15:04"),
			actor,
			e.Role,
			e.Action,
			e.ResourceType + " " + e.ResourceID,
			string(e.Metadata),
		})
	}
	fmt.Println(cli.RenderTable(t))
	return nil
}
