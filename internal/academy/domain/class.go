package academy

import (
	"strings"
	"time"
)

// ScheduleLayout is the wall-clock format of class start times.
const ScheduleLayout = "15:04"

// Weekdays lists the short day codes stored on classes.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// NormalizeWeekday maps "monday", "Mon" or "MON" to "Mon".
func NormalizeWeekday(day string) (string, bool) {
	day = strings.TrimSpace(day)
	if len(day) < 3 {
		return "", false
	}
	prefix := strings.ToLower(day[:3])
	for _, candidate := range Weekdays {
		if strings.ToLower(candidate) == prefix {
			return candidate, true
		}
	}
	return "", false
}

// Class is a recurring slot on the weekly schedule.
type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ScheduleTime string    `json:"schedule_time"`
	ProfessorID  string    `json:"professor_id,omitempty"`
	DaysOfWeek   []string  `json:"days_of_week"`
	CreatedAt    time.Time `json:"created_at"`
}

// MeetsOn reports whether the class is held on the weekday of day.
func (c Class) MeetsOn(day time.Time) bool {
	want := Weekdays[day.Weekday()]
	for _, d := range c.DaysOfWeek {
		if norm, ok := NormalizeWeekday(d); ok && norm == want {
			return true
		}
	}
	return false
}

// SessionStatus is the lifecycle of one held class.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCanceled  SessionStatus = "canceled"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCanceled:
		return true
	}
	return false
}

// ClassSession is one occurrence of a class on a date. There is at most one
// session per class and date.
type ClassSession struct {
	ID               string        `json:"id"`
	ClassID          string        `json:"class_id"`
	Date             time.Time     `json:"date"`
	ProfessorID      string        `json:"professor_id,omitempty"`
	ProfessorPresent bool          `json:"professor_present"`
	Status           SessionStatus `json:"status"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Attendance is the presence mark of a student in a class on a date. It is
// unique per student, class and date.
type Attendance struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"`
	Present   bool      `json:"present"`
	CreatedAt time.Time `json:"created_at"`
}
