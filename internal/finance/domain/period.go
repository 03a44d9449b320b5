package finance

import (
	"fmt"
	"time"
)

// Dates in this package are civil dates stored as UTC midnight. Timestamps are
// converted with CivilDate using the gym's location before comparison.

// Date builds a civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CivilDate returns the calendar day of t as observed in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns the whole calendar days from "from" to "to".
func DaysBetween(from, to time.Time) int {
	from = Date(from.Year(), from.Month(), from.Day())
	to = Date(to.Year(), to.Month(), to.Day())
	return int(to.Sub(from).Hours() / 24)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// LastDayOfMonth returns the number of days in the month.
func LastDayOfMonth(year int, month time.Month) int {
	return Date(year, month, 1).AddDate(0, 1, -1).Day()
}

// ClampDueDate places a due day inside the given month. Days past the end of
// the month fall on its last day and non-positive days fall on the first.
func ClampDueDate(year int, month time.Month, dueDay int) time.Time {
	last := LastDayOfMonth(year, month)
	switch {
	case dueDay < 1:
		dueDay = 1
	case dueDay > last:
		dueDay = last
	}
	return Date(year, month, dueDay)
}

// SameMonth reports whether two civil dates share year and month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Preset names a reporting window.
type Preset string

const (
	PresetCurrentMonth Preset = "current_month"
	PresetLastMonth    Preset = "last_month"
	PresetLast3Months  Preset = "last_3_months"
	PresetLast6Months  Preset = "last_6_months"
	PresetYearToDate   Preset = "year_to_date"
)

// Period is an inclusive range of civil dates.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod validates and builds a period.
func NewPeriod(start, end time.Time) (Period, error) {
	start = Date(start.Year(), start.Month(), start.Day())
	end = Date(end.Year(), end.Month(), end.Day())
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// ResolvePeriod expands a preset relative to today.
func ResolvePeriod(preset Preset, today time.Time) (Period, error) {
	today = Date(today.Year(), today.Month(), today.Day())
	switch preset {
	case "", PresetCurrentMonth:
		return Period{Start: MonthStart(today), End: MonthEnd(today)}, nil
	case PresetLastMonth:
		prev := MonthStart(today).AddDate(0, -1, 0)
		return Period{Start: prev, End: MonthEnd(prev)}, nil
	case PresetLast3Months:
		return Period{Start: MonthStart(today).AddDate(0, -2, 0), End: MonthEnd(today)}, nil
	case PresetLast6Months:
		return Period{Start: MonthStart(today).AddDate(0, -5, 0), End: MonthEnd(today)}, nil
	case PresetYearToDate:
		return Period{Start: Date(today.Year(), time.January, 1), End: MonthEnd(today)}, nil
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

// Contains reports whether the civil date d is inside the period.
func (p Period) Contains(d time.Time) bool {
	d = Date(d.Year(), d.Month(), d.Day())
	return !d.Before(p.Start) && !d.After(p.End)
}

// Months returns the first day of every calendar month the period touches.
func (p Period) Months() []time.Time {
	if p.End.Before(p.Start) {
		return nil
	}
	var months []time.Time
	for m := MonthStart(p.Start); !m.After(p.End); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// String renders the period as "YYYY-MM-DD..YYYY-MM-DD".
func (p Period) String() string {
	return p.Start.Format(DateLayout) + ".." + p.End.Format(DateLayout)
}

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"
