package finance

import (
	"strings"
	"time"
)

const (
	ghostPrefix        = "ghost-"
	ghostStudentPrefix = "student-"
)

// GhostKind tells which template produced a projected entry.
type GhostKind string

const (
	GhostFixedExpense GhostKind = "fixed_expense"
	GhostSubscription GhostKind = "subscription"
)

// GhostRef is the decoded form of a projected entry id.
type GhostRef struct {
	Kind       GhostKind
	TemplateID string
	DueDate    time.Time
}

// FixedExpenseGhostID builds the deterministic id of a fixed-expense projection.
func FixedExpenseGhostID(templateID string, due time.Time) string {
	return ghostPrefix + templateID + "-" + due.Format(DateLayout)
}

// SubscriptionGhostID builds the deterministic id of a tuition projection.
func SubscriptionGhostID(studentID string, due time.Time) string {
	return ghostPrefix + ghostStudentPrefix + studentID + "-" + due.Format(DateLayout)
}

// IsGhostID reports whether id names a projected entry.
func IsGhostID(id string) bool {
	return strings.HasPrefix(id, ghostPrefix)
}

// ParseGhostID decodes a projected entry id.
func ParseGhostID(id string) (GhostRef, error) {
	if !IsGhostID(id) {
		return GhostRef{}, ErrInvalidGhostID
	}
	rest := strings.TrimPrefix(id, ghostPrefix)
	if len(rest) < len(DateLayout)+2 || rest[len(rest)-len(DateLayout)-1] != '-' {
		return GhostRef{}, ErrInvalidGhostID
	}
	due, err := time.Parse(DateLayout, rest[len(rest)-len(DateLayout):])
	if err != nil {
		return GhostRef{}, ErrInvalidGhostID
	}
	templateID := rest[:len(rest)-len(DateLayout)-1]
	ref := GhostRef{Kind: GhostFixedExpense, TemplateID: templateID, DueDate: due}
	if strings.HasPrefix(templateID, ghostStudentPrefix) {
		ref.Kind = GhostSubscription
		ref.TemplateID = strings.TrimPrefix(templateID, ghostStudentPrefix)
	}
	if ref.TemplateID == "" {
		return GhostRef{}, ErrInvalidGhostID
	}
	return ref, nil
}

// ProjectFixedExpense builds the projected entry for a template and due date.
func ProjectFixedExpense(f FixedExpense, due time.Time) Entry {
	dueCopy := due
	return Entry{
		ID:             FixedExpenseGhostID(f.ID, due),
		Type:           EntryTypeExpense,
		Category:       f.Category,
		Description:    f.Description,
		Amount:         f.Amount,
		Status:         EntryStatusPending,
		DueDate:        &dueCopy,
		CreatedAt:      due,
		FixedExpenseID: f.ID,
		Projected:      true,
	}
}

// ProjectSubscription builds the projected tuition entry for a due date.
func ProjectSubscription(s Subscription, due time.Time) Entry {
	dueCopy := due
	return Entry{
		ID:             SubscriptionGhostID(s.StudentID, due),
		Type:           EntryTypeIncome,
		Category:       CategoryTuition,
		Description:    s.StudentName,
		Amount:         s.Amount,
		Status:         EntryStatusPending,
		DueDate:        &dueCopy,
		CreatedAt:      due,
		RelatedPartyID: s.StudentID,
		Phone:          s.Phone,
		Projected:      true,
	}
}
