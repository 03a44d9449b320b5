package finance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSubscriptionDueDay applies to students without a due day on record.
const DefaultSubscriptionDueDay = 10

// matchTolerance is the largest amount difference treated as equal when
// matching legacy entries to a template.
var matchTolerance = decimal.RequireFromString("0.01")

// FixedExpense is a recurring expense template.
type FixedExpense struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"due_day"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Label renders the label used by projections of this template.
func (f FixedExpense) Label() string {
	return FormatLabel(f.Category, f.Description)
}

// AppliesTo reports whether the template already existed in due's month.
func (f FixedExpense) AppliesTo(due time.Time, loc *time.Location) bool {
	return startedBy(f.CreatedAt, due, loc)
}

// SatisfiedBy reports whether entry pays this template for the month of due.
// A strict link by template id always wins; entries without a link match on
// amount and label content.
func (f FixedExpense) SatisfiedBy(entry Entry, due time.Time, loc *time.Location) bool {
	if !entry.IsExpense() {
		return false
	}
	if !SameMonth(EntryDay(entry, loc), due) {
		return false
	}
	if entry.FixedExpenseID != "" {
		return entry.FixedExpenseID == f.ID
	}
	if entry.Amount.Sub(f.Amount).Abs().GreaterThanOrEqual(matchTolerance) {
		return false
	}
	label := strings.ToLower(entry.Label())
	category := strings.ToLower(strings.TrimSpace(f.Category))
	description := strings.ToLower(strings.TrimSpace(f.Description))
	return (category != "" && strings.Contains(label, category)) ||
		(description != "" && strings.Contains(label, description))
}

// Subscription is the recurring tuition of an active student with a plan.
type Subscription struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	Phone       string          `json:"phone,omitempty"`
	PlanName    string          `json:"plan_name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"due_day"`
	// Since is the enrollment timestamp. Zero means no lower bound.
	Since       time.Time       `json:"since"`
}

// AppliesTo reports whether the student was enrolled in due's month.
func (s Subscription) AppliesTo(due time.Time, loc *time.Location) bool {
	return startedBy(s.Since, due, loc)
}

// EffectiveDueDay falls back to the default when no due day is set.
func (s Subscription) EffectiveDueDay() int {
	if s.DueDay == 0 {
		return DefaultSubscriptionDueDay
	}
	return s.DueDay
}

// SatisfiedBy reports whether entry pays this subscription for due's month.
// Only strict links count for income, paid or pending.
func (s Subscription) SatisfiedBy(entry Entry, due time.Time, loc *time.Location) bool {
	if !entry.IsIncome() || entry.RelatedPartyID == "" {
		return false
	}
	return entry.RelatedPartyID == s.StudentID && SameMonth(EntryDay(entry, loc), due)
}

func startedBy(since, due time.Time, loc *time.Location) bool {
	if since.IsZero() {
		return true
	}
	return !MonthStart(due).Before(MonthStart(CivilDate(since, loc)))
}

// EntryDay returns the civil date used to place an entry in a month: the due
// date when set, otherwise the creation day in loc.
func EntryDay(entry Entry, loc *time.Location) time.Time {
	if entry.DueDate != nil && !entry.DueDate.IsZero() {
		return Date(entry.DueDate.Year(), entry.DueDate.Month(), entry.DueDate.Day())
	}
	return CivilDate(entry.CreatedAt, loc)
}
