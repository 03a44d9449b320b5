package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a billing reminder.
type Kind string

const (
	KindPreventive Kind = "preventive"
	KindOverdue    Kind = "overdue"
)

// SendStatus tracks a candidate through a batch.
type SendStatus string

const (
	StatusPending SendStatus = "pending"
	StatusSending SendStatus = "sending"
	StatusSent    SendStatus = "sent"
	StatusError   SendStatus = "error"
)

// Candidate is a receivable that should get a WhatsApp reminder today.
type Candidate struct {
	EntryID   string          `json:"entry_id"`
	StudentID string          `json:"student_id,omitempty"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
	Projected bool            `json:"projected"`
	Kind      Kind            `json:"kind"`
	DaysDiff  int             `json:"days_diff"`
	Message   string          `json:"message"`
	Selected  bool            `json:"selected"`
	Status    SendStatus      `json:"status"`
	Error     string          `json:"error,omitempty"`
}

// Ready reports whether the candidate will be sent by the next batch.
func (c Candidate) Ready() bool {
	return c.Selected && c.Status == StatusPending
}

// Classify maps days past due (negative when the due date is ahead) to a
// reminder kind. Due tomorrow is preventive; overdue reminders go out every
// other day starting on day 2. Everything else waits.
func Classify(diff int) (Kind, bool) {
	switch {
	case diff == -1:
		return KindPreventive, true
	case diff > 0 && diff%2 == 0:
		return KindOverdue, true
	default:
		return "", false
	}
}

// BatchResult summarizes one dispatch.
type BatchResult struct {
	Candidates []Candidate `json:"candidates"`
	Sent       int         `json:"sent"`
	Failed     int         `json:"failed"`
	Remaining  int         `json:"remaining"`
}

// ReminderReport is the outcome of a due-day reminder run.
type ReminderReport struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Errors    int      `json:"errors"`
	DryRun    bool     `json:"dry_run"`
	Logs      []string `json:"logs"`
}
