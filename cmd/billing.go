package cmd

import (
	"context"
	"fmt"

	billing "sensei-backoffice/internal/billing/domain"
	"sensei-backoffice/internal/cli"
	finance "sensei-backoffice/internal/finance/domain"

	"github.com/spf13/cobra"
)

var flagDryRun bool

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "List and send WhatsApp billing reminders",
}

var billingCandidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List today's preventive and overdue reminders",
	RunE:  runBillingCandidates,
}

var billingSendCmd = &cobra.Command{
	Use:   "send [entry-id...]",
	Short: "Send today's reminders, or only the given entries, one at a time",
	RunE:  runBillingSend,
}

var billingRemindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the due-day reminder bot once",
	RunE:  runBillingRemind,
}

func init() {
	billingRemindCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Log what would be sent without calling the gateway")
	billingCmd.AddCommand(billingCandidatesCmd, billingSendCmd, billingRemindCmd)
	rootCmd.AddCommand(billingCmd)
}

func commandContext(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func candidateTable(candidates []billing.Candidate) cli.Table {
	t := cli.Table{Headers: []string{"Entry", "Name", "Phone", "Due", "Amount", "Kind", "Status"}}
	for _, c := range candidates {
		status := string(c.Status)
		if status == "" {
			status = "-"
		}
		t.Rows = append(t.Rows, []string{
			c.EntryID,
			c.Name,
			c.Phone,
			c.DueDate.Format("02/01/2006"),
			finance.FormatBRL(c.Amount),
			string(c.Kind),
			status,
		})
		t.Muted = append(t.Muted, !c.Selected)
	}
	return t
}

func runBillingCandidates(c *cobra.Command, _ []string) error {
	ctx := commandContext(c)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	candidates, err := a.billing.Candidates(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle("BILLING CANDIDATES"))
	fmt.Println()
	if len(candidates) == 0 {
		fmt.Println("  Nothing to send today.")
		return nil
	}
	fmt.Println(cli.RenderTable(candidateTable(candidates)))
	return nil
}

func runBillingSend(c *cobra.Command, args []string) error {
	ctx := commandContext(c)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.billing.Send(ctx, args)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.RenderTable(candidateTable(result.Candidates)))
	fmt.Println()
	fmt.Println(cli.RenderKV([][2]string{
		{"Sent", cli.Status(fmt.Sprintf("%d", result.Sent), true)},
		{"Failed", cli.Status(fmt.Sprintf("%d", result.Failed), result.Failed == 0)},
		{"Remaining", fmt.Sprintf("%d", result.Remaining)},
	}))
	return nil
}

func runBillingRemind(c *cobra.Command, _ []string) error {
	ctx := commandContext(c)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.reminders.Run(ctx, flagDryRun)
	if err != nil {
		return err
	}
	for _, line := range report.Logs {
		fmt.Println("  " + line)
	}
	fmt.Println()
	fmt.Println(cli.RenderKV([][2]string{
		{"Processed", fmt.Sprintf("%d", report.Processed)},
		{"Sent", cli.Status(fmt.Sprintf("%d", report.Sent), true)},
		{"Errors", cli.Status(fmt.Sprintf("%d", report.Errors), report.Errors == 0)},
		{"Dry run", fmt.Sprintf("%t", report.DryRun)},
	}))
	return nil
}
