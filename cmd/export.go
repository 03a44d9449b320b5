package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
	financehttp "sensei-backoffice/internal/finance/interfaces"

	"github.com/spf13/cobra"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the financial report of a period as PDF, XLSX or CSV",
	RunE:  runExport,
}

func init() {
	addPeriodFlags(exportCmd)
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "pdf", "pdf, xlsx or csv")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default relatorio_financeiro_<date>.<format>)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(c *cobra.Command, _ []string) error {
	switch flagExportFormat {
	case "pdf", "xlsx", "csv":
	default:
		return fmt.Errorf("export: unknown format %q", flagExportFormat)
	}

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

	var data []byte
	switch flagExportFormat {
	case "csv":
		var buf bytes.Buffer
		if err := financehttp.WriteLedgerCSV(&buf, view.Entries, a.ledger.Location()); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		summary, err := a.ledger.Summary(ctx, period)
		if err != nil {
			return err
		}
		report := financehttp.Report{
			Period:      period,
			Summary:     summary,
			Entries:     view.Realized,
			GeneratedAt: time.Now().In(a.ledger.Location()),
			Location:    a.ledger.Location(),
		}
		if flagExportFormat == "pdf" {
			data, err = financehttp.BuildLedgerPDF(report)
		} else {
			data, err = financehttp.BuildLedgerXLSX(report)
		}
		if err != nil {
			return err
		}
	}

	out := flagExportOut
	if out == "" {
		out = fmt.Sprintf("relatorio_financeiro_%s.%s", a.ledger.Today().Format(finance.DateLayout), flagExportFormat)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", out, err)
	}
	fmt.Printf("  wrote %s (%d bytes)\n", out, len(data))
	return nil
}
