package finance

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType distinguishes money in from money out.
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// EntryStatus is the payment state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPaid    EntryStatus = "paid"
	EntryStatusPending EntryStatus = "pending"
	EntryStatusOverdue EntryStatus = "overdue"
)

// Category tags used by entries the system creates itself.
const (
	CategoryTuition  = "Mensalidade"
	CategoryPOS      = "PDV"
	CategoryPayroll  = "Folha"
	DefaultPartyName = "Aluno"
)

// Entry is a realized or projected ledger entry.
type Entry struct {
	ID             string          `json:"id"`
	Type           EntryType       `json:"type"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Status         EntryStatus     `json:"status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	RelatedPartyID string          `json:"related_party_id,omitempty"`
	FixedExpenseID string          `json:"fixed_expense_id,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Projected      bool            `json:"projected"`
}

// EffectiveDate is the due date when present, otherwise the creation date.
func (e Entry) EffectiveDate() time.Time {
	if e.DueDate != nil && !e.DueDate.IsZero() {
		return *e.DueDate
	}
	return e.CreatedAt
}

// IsIncome reports whether the entry is income.
func (e Entry) IsIncome() bool { return e.Type == EntryTypeIncome }

// IsExpense reports whether the entry is an expense.
func (e Entry) IsExpense() bool { return e.Type == EntryTypeExpense }

// IsPaid reports whether the entry is settled.
func (e Entry) IsPaid() bool { return e.Status == EntryStatusPaid }

// Label renders the stored "[Category] Description" form.
func (e Entry) Label() string {
	return FormatLabel(e.Category, e.Description)
}

// Clone returns a copy that shares no pointers with e.
func (e Entry) Clone() Entry {
	out := e
	if e.DueDate != nil {
		due := *e.DueDate
		out.DueDate = &due
	}
	return out
}

var labelPattern = regexp.MustCompile(`^\[(.*?)\]\s*(.*)`)

// ParseLabel splits a stored label into its tag and free text. Labels without
// a tag are returned whole as the category.
func ParseLabel(label string) (category, description string) {
	match := labelPattern.FindStringSubmatch(label)
	if match == nil {
		return strings.TrimSpace(label), ""
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2])
}

// FormatLabel is the inverse of ParseLabel.
func FormatLabel(category, description string) string {
	category = strings.TrimSpace(category)
	description = strings.TrimSpace(description)
	switch {
	case description == "":
		return category
	case category == "":
		return description
	default:
		return "[" + category + "] " + description
	}
}

// PartyName returns the display name carried in the description, or the
// generic fallback.
func (e Entry) PartyName() string {
	if e.Description != "" {
		return e.Description
	}
	return DefaultPartyName
}

// ValidEntryType reports whether t is known.
func ValidEntryType(t EntryType) bool {
	return t == EntryTypeIncome || t == EntryTypeExpense
}

// ValidEntryStatus reports whether s is known.
func ValidEntryStatus(s EntryStatus) bool {
	switch s {
	case EntryStatusPaid, EntryStatusPending, EntryStatusOverdue:
		return true
	default:
		return false
	}
}
