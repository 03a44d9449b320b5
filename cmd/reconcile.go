package cmd

import (
	"fmt"
	"time"

	"sensei-backoffice/internal/cli"
	finance "sensei-backoffice/internal/finance/domain"

	"github.com/spf13/cobra"
)

var (
	flagPreset string
	flagStart  string
	flagEnd    string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Print the merged ledger with projected entries for a period",
	RunE:  runReconcile,
}

func init() {
	addPeriodFlags(reconcileCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func addPeriodFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagPreset, "preset", string(finance.PresetCurrentMonth), "current_month, last_month, last_3_months, last_6_months or year_to_date")
	c.Flags().StringVar(&flagStart, "start", "", "Period start (YYYY-MM-DD); requires --end")
	c.Flags().StringVar(&flagEnd, "end", "", "Period end (YYYY-MM-DD)")
}

func (a *app) periodFromFlags() (finance.Period, error) {
	if flagStart == "" && flagEnd == "" {
		return a.ledger.ResolvePeriod(finance.Preset(flagPreset))
	}
	start, err := time.Parse(finance.DateLayout, flagStart)
	if err != nil {
		return finance.Period{}, fmt.Errorf("%w: --start must be YYYY-MM-DD", finance.ErrInvalidPeriod)
	}
	end, err := time.Parse(finance.DateLayout, flagEnd)
	if err != nil {
		return finance.Period{}, fmt.Errorf("%w: --end must be YYYY-MM-DD", finance.ErrInvalidPeriod)
	}
	return finance.NewPeriod(start, end)
}

func runReconcile(c *cobra.Command, _ []string) error {
	ctx := commandContext(c)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	period, err := a.periodFromFlags()
	if err != nil {
		return err
	}
	view, err := a.ledger.Ledger(ctx, period)
	if err != nil {
		return err
	}
	summary, err := a.ledger.Summary(ctx, period)
	if err != nil {
		return err
	}

	t := cli.Table{
		Headers: []string{"Due", "Type", "Category", "Description", "Amount", "Status"},
	}
	for _, e := range view.Entries {
		status := string(e.Status)
		if e.Projected {
			status += " (projected)"
		}
		t.Rows = append(t.Rows, []string{
			e.EffectiveDate().Format("02/01/2006"),
			string(e.Type),
			e.Category,
			e.Description,
			finance.FormatBRL(e.Amount),
			status,
		})
		t.Muted = append(t.Muted, e.Projected)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("LEDGER  " + period.String()))
	fmt.Println()
	if len(t.Rows) == 0 {
		fmt.Println("  No entries in the selected period.")
	} else {
		fmt.Println(cli.RenderTable(t))
	}
	fmt.Println()
	fmt.Println(cli.RenderKV([][2]string{
		{"Realized", fmt.Sprintf("%d", len(view.Realized))},
		{"Projected expenses", fmt.Sprintf("%d", len(view.ProjectedExpenses))},
		{"Projected income", fmt.Sprintf("%d", len(view.ProjectedIncome))},
		{"Income paid", finance.FormatBRL(summary.IncomePaid)},
		{"Income pending", finance.FormatBRL(summary.IncomePending)},
		{"Expense paid", finance.FormatBRL(summary.ExpensePaid)},
		{"Expense pending", finance.FormatBRL(summary.ExpensePending)},
		{"Realized balance", finance.FormatBRL(summary.RealizedBalance)},
		{"Projected balance", finance.FormatBRL(summary.ProjectedBalance)},
	}))
	fmt.Println()
	return nil
}
