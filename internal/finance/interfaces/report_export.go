package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
)

const (
	reportTitle   = "Relatório Financeiro - Sensei"
	receiptTitle  = "RECIBO DE PAGAMENTO"
	brDate        = "02/01/2006"
	brDateTime    = "02/01/2006 15:04"
	xlsxSheetName = "Transações"
)

// Report is the input of the ledger exports.
type Report struct {
	Period      finance.Period
	Summary     *financeapp.Summary
	Entries     []finance.Entry
	GeneratedAt time.Time
	Location    *time.Location
}

func (r Report) sortedEntries() []finance.Entry {
	out := append([]finance.Entry(nil), r.Entries...)
	loc := locationOr(r.Location)
	sort.SliceStable(out, func(i, j int) bool {
		return finance.EntryDay(out[i], loc).Before(finance.EntryDay(out[j], loc))
	})
	return out
}

func typeLabel(t finance.EntryType) string {
	if t == finance.EntryTypeIncome {
		return "Entrada"
	}
	return "Saída"
}

func statusLabel(s finance.EntryStatus) string {
	switch s {
	case finance.EntryStatusPaid:
		return "Pago"
	case finance.EntryStatusOverdue:
		return "Vencido"
	default:
		return "Pendente"
	}
}

func descriptionOf(entry finance.Entry) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Category
}

func dueDateText(entry finance.Entry) string {
	if entry.DueDate == nil {
		return ""
	}
	return entry.DueDate.Format(brDate)
}

// BuildLedgerPDF renders the period report with its summary table and every
// realized entry.
func BuildLedgerPDF(report Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(95, 5, tr("Gerado em "+report.GeneratedAt.Format(brDateTime)), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 5, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(reportTitle))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Período: %s a %s", report.Period.Start.Format(brDate), report.Period.End.Format(brDate))))
	pdf.Ln(12)

	if report.Summary != nil {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, "Resumo Financeiro")
		pdf.Ln(9)
		sum := report.Summary
		rows := [][2]string{
			{"Receitas Realizadas", finance.FormatBRL(sum.IncomePaid)},
			{"Receitas Pendentes", finance.FormatBRL(sum.IncomePending)},
			{"Despesas Pagas", finance.FormatBRL(sum.ExpensePaid)},
			{"Despesas Pendentes", finance.FormatBRL(sum.ExpensePending)},
			{"Balanço (Realizado)", finance.FormatBRL(sum.RealizedBalance)},
			{"Balanço (Previsto)", finance.FormatBRL(sum.ProjectedBalance)},
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(100, 6, "Item", "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, "Valor", "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, row := range rows {
			pdf.CellFormat(100, 6, tr(row[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, tr(row[1]), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, tr("Detalhamento das Transações"))
	pdf.Ln(9)
	entries := report.sortedEntries()
	if len(entries) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, tr("Nenhuma transação encontrada neste período."))
	} else {
		widths := []float64{22, 18, 30, 70, 28, 22}
		headers := []string{"Data", "Tipo", "Categoria", "Descrição", "Valor", "Status"}
		pdf.SetFont("Arial", "B", 8)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, entry := range entries {
			cells := []string{
				finance.EntryDay(entry, locationOr(report.Location)).Format(brDate),
				typeLabel(entry.Type),
				entry.Category,
				descriptionOf(entry),
				finance.FormatBRL(entry.Amount),
				statusLabel(entry.Status),
			}
			for i, cell := range cells {
				align := "L"
				if i == 4 {
					align = "R"
				}
				pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLedgerXLSX renders the entries of a period as one worksheet.
func BuildLedgerXLSX(report Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return nil, err
	}

	headers := []string{"Data", "Tipo", "Categoria", "Descrição", "Valor", "Status", "Data Vencimento"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheetName, cell, h)
	}
	loc := locationOr(report.Location)
	for i, entry := range report.sortedEntries() {
		row := i + 2
		amount, _ := entry.Amount.Float64()
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("A%d", row), finance.EntryDay(entry, loc).Format(brDate))
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("B%d", row), typeLabel(entry.Type))
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("C%d", row), entry.Category)
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("D%d", row), descriptionOf(entry))
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("E%d", row), amount)
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("F%d", row), statusLabel(entry.Status))
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("G%d", row), dueDateText(entry))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLedgerCSV writes entries as CSV, ghosts included and flagged.
func WriteLedgerCSV(buf *bytes.Buffer, entries []finance.Entry, loc *time.Location) error {
	writer := csv.NewWriter(buf)
	_ = writer.Write([]string{
		"id",
		"date",
		"type",
		"category",
		"description",
		"amount",
		"status",
		"due_date",
		"projected",
	})
	loc = locationOr(loc)
	for _, entry := range entries {
		due := ""
		if entry.DueDate != nil {
			due = entry.DueDate.Format(finance.DateLayout)
		}
		_ = writer.Write([]string{
			entry.ID,
			finance.EntryDay(entry, loc).Format(finance.DateLayout),
			string(entry.Type),
			entry.Category,
			entry.Description,
			entry.Amount.StringFixed(2),
			string(entry.Status),
			due,
			fmt.Sprintf("%t", entry.Projected),
		})
	}
	writer.Flush()
	return writer.Error()
}

// Receipt is the input of BuildReceiptPDF.
type Receipt struct {
	Entry       finance.Entry
	PayerName   string
	GymName     string
	GeneratedAt time.Time
}

// BuildReceiptPDF renders a payment receipt for one entry.
func BuildReceiptPDF(receipt Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	gym := receipt.GymName
	if gym == "" {
		gym = "Sensei System"
	}
	payer := receipt.PayerName
	if payer == "" {
		payer = receipt.Entry.PartyName()
	}
	amount := finance.FormatBRL(receipt.Entry.Amount)

	pdf.SetFillColor(24, 24, 27)
	pdf.Rect(0, 0, 210, 40, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 22)
	pdf.SetXY(0, 12)
	pdf.CellFormat(210, 10, receiptTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(210, 6, tr(gym), "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(15, 50, 180, 100, "D")

	pdf.SetXY(20, 58)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(80, 8, "Data: "+receipt.GeneratedAt.Format(brDateTime), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(90, 8, tr("VALOR: "+amount), "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetXY(20, 85)
	pdf.CellFormat(170, 10, tr("Recebemos de "+strings.ToUpper(payer)), "", 1, "L", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(170, 10, tr("a importância de "+amount), "", 1, "L", false, 0, "")
	reference := receipt.Entry.Category
	if receipt.Entry.Description != "" {
		reference += " - " + receipt.Entry.Description
	}
	pdf.SetX(20)
	pdf.CellFormat(170, 10, tr("Referente a: "+reference), "", 1, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(60, 130, 150, 130)
	pdf.SetXY(0, 131)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(210, 5, "Assinatura / Carimbo", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.SetXY(20, 141)
	pdf.CellFormat(170, 4, tr("ID da Transação: "+receipt.Entry.ID), "", 1, "L", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(170, 4, "Gerado automaticamente pelo Sensei System", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func locationOr(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
