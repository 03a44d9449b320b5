package academy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StudentStatus is the enrollment state of a student.
type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentDebt     StudentStatus = "debt"
	StudentInactive StudentStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentDebt, StudentInactive:
		return true
	}
	return false
}

const (
	// MaxDegrees is the number of stripes a belt holds before a belt change.
	MaxDegrees = 4
	// MaxBlackBeltDegrees bounds the degrees of any belt.
	MaxBlackBeltDegrees = 10
)

// Student is an enrolled practitioner.
type Student struct {
	ID        string        `json:"id"`
	FullName  string        `json:"full_name"`
	Phone     string        `json:"phone,omitempty"`
	Email     string        `json:"email,omitempty"`
	PlanID    string        `json:"plan_id,omitempty"`
	Status    StudentStatus `json:"status"`
	DueDay    int           `json:"due_day,omitempty"`
	Modality  string        `json:"modality,omitempty"`
	Belt      string        `json:"belt,omitempty"`
	Degrees   int           `json:"degrees"`
	CreatedAt time.Time     `json:"created_at"`
}

// IsWhiteBelt reports whether the student still wears the beginner belt.
func (s Student) IsWhiteBelt() bool {
	return strings.Contains(strings.ToLower(s.Belt), "branca")
}

// Plan is a tuition plan.
type Plan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	WeeklyLimit int             `json:"weekly_limit"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Professor teaches classes and is paid per completed session.
type Professor struct {
	ID         string          `json:"id"`
	FullName   string          `json:"full_name"`
	Modality   string          `json:"modality,omitempty"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	CreatedAt  time.Time       `json:"created_at"`
}

// GymInfo identifies the academy on messages and documents.
type GymInfo struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Status StudentStatus
	Search string
}

// Matches reports whether s passes the filter.
func (f StudentFilter) Matches(s Student) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.FullName), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
