package finance

import "github.com/shopspring/decimal"

// Workload is the teaching activity of one professor within a period.
type Workload struct {
	ProfessorID   string
	ProfessorName string
	HourlyRate    decimal.Decimal
	Sessions      int
}

// PayrollLine is what a professor is owed for a period.
type PayrollLine struct {
	ProfessorID   string          `json:"professor_id"`
	ProfessorName string          `json:"professor_name"`
	Sessions      int             `json:"sessions"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Total         decimal.Decimal `json:"total"`
	Paid          bool            `json:"paid"`
}

// NewPayrollLine prices a workload.
func NewPayrollLine(w Workload) PayrollLine {
	return PayrollLine{
		ProfessorID:   w.ProfessorID,
		ProfessorName: w.ProfessorName,
		Sessions:      w.Sessions,
		HourlyRate:    w.HourlyRate,
		Total:         w.HourlyRate.Mul(decimal.NewFromInt(int64(w.Sessions))),
	}
}

// PayrollDescription is the description of the expense that pays a professor.
func PayrollDescription(name string) string {
	return "Pagamento Professor - " + name
}
