package apihttp

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

var weekdayCodes = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// DashboardHandler serves the home screen figures.
type DashboardHandler struct {
	db    *sql.DB
	loc   *time.Location
	clock Clock
}

// NewDashboardHandler constructs a DashboardHandler. Days are counted in loc.
func NewDashboardHandler(db *sql.DB, loc *time.Location, clock Clock) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &DashboardHandler{db: db, loc: loc, clock: clock}
}

type dashboardKPIs struct {
	ActiveStudents int             `json:"active_students"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	Debtors        int             `json:"debtors"`
	Professors     int             `json:"professors"`
}

type todayClass struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ScheduleTime string `json:"schedule_time"`
	Professor    string `json:"professor,omitempty"`
}

type frequencyPoint struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Present int    `json:"present"`
}

type dashboard struct {
	Date      string           `json:"date"`
	KPIs      dashboardKPIs    `json:"kpis"`
	Classes   []todayClass     `json:"classes_today"`
	Frequency []frequencyPoint `json:"weekly_frequency"`
}

// ServeHTTP handles GET /api/v1/dashboard.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	today := civilDay(h.clock.Now(), h.loc)
	kpis, err := queryKPIs(r.Context(), h.db, today)
	if err != nil {
		http.Error(w, "query kpis error", http.StatusInternalServerError)
		return
	}
	classes, err := queryTodayClasses(r.Context(), h.db, weekdayCodes[today.Weekday()])
	if err != nil {
		http.Error(w, "query classes error", http.StatusInternalServerError)
		return
	}
	frequency, err := queryFrequency(r.Context(), h.db, today.AddDate(0, 0, -6), today)
	if err != nil {
		http.Error(w, "query frequency error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dashboard{
		Date:      today.Format(dateLayout),
		KPIs:      kpis,
		Classes:   classes,
		Frequency: frequency,
	})
}

// AttendanceCSVHandler exports attendance marks.
type AttendanceCSVHandler struct {
	db *sql.DB
}

// NewAttendanceCSVHandler constructs an AttendanceCSVHandler.
func NewAttendanceCSVHandler(db *sql.DB) *AttendanceCSVHandler {
	return &AttendanceCSVHandler{db: db}
}

// ServeHTTP handles GET /api/v1/exports/attendance.csv.
func (h *AttendanceCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	rows, err := queryAttendance(r.Context(), h.db, from, to)
	if err != nil {
		http.Error(w, "query attendance error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="frequencia.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"date", "class", "student", "present", "recorded_at"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.Date.Format(dateLayout),
			row.ClassName,
			row.StudentName,
			formatBool(row.Present),
			formatTime(row.RecordedAt),
		})
	}
	writer.Flush()
}

type attendanceRow struct {
	Date        time.Time
	ClassName   string
	StudentName string
	Present     bool
	RecordedAt  time.Time
}

func queryKPIs(ctx context.Context, db *sql.DB, today time.Time) (dashboardKPIs, error) {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	var kpis dashboardKPIs
	err := db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM students WHERE status = 'active'),
	(SELECT COUNT(*) FROM students WHERE status = 'debt'),
	(SELECT COUNT(*) FROM professors),
	(SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE type = 'income' AND status = 'paid'
		AND COALESCE(due_date, created_at::date) BETWEEN $1 AND $2)`,
		monthStart, monthEnd,
	).Scan(&kpis.ActiveStudents, &kpis.Debtors, &kpis.Professors, &kpis.MonthlyRevenue)
	return kpis, err
}

func queryTodayClasses(ctx context.Context, db *sql.DB, weekday string) ([]todayClass, error) {
	rows, err := db.QueryContext(ctx, `
SELECT c.id, c.name, c.schedule_time, COALESCE(p.full_name, '')
FROM classes c
LEFT JOIN professors p ON p.id = c.professor_id
WHERE $1 = ANY(c.days_of_week)
ORDER BY c.schedule_time, c.name`, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []todayClass{}
	for rows.Next() {
		var row todayClass
		if err := rows.Scan(&row.ID, &row.Name, &row.ScheduleTime, &row.Professor); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// queryFrequency returns one point per day in [from, to], zero-filled.
func queryFrequency(ctx context.Context, db *sql.DB, from, to time.Time) ([]frequencyPoint, error) {
	rows, err := db.QueryContext(ctx, `
SELECT date, COUNT(*)
FROM attendance
WHERE present AND date BETWEEN $1 AND $2
GROUP BY date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			day   time.Time
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day.UTC().Format(dateLayout)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fillFrequency(from, to, counts), nil
}

func fillFrequency(from, to time.Time, counts map[string]int) []frequencyPoint {
	var out []frequencyPoint
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		out = append(out, frequencyPoint{Date: key, Weekday: weekdayCodes[day.Weekday()], Present: counts[key]})
	}
	return out
}

func queryAttendance(ctx context.Context, db *sql.DB, from, to time.Time) ([]attendanceRow, error) {
	rows, err := db.QueryContext(ctx, `
SELECT a.date, c.name, s.full_name, a.present, a.created_at
FROM attendance a
JOIN classes c ON c.id = a.class_id
JOIN students s ON s.id = a.student_id
WHERE a.date BETWEEN $1 AND $2
ORDER BY a.date, c.schedule_time, s.full_name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []attendanceRow
	for rows.Next() {
		var row attendanceRow
		if err := rows.Scan(&row.Date, &row.ClassName, &row.StudentName, &row.Present, &row.RecordedAt); err != nil {
			return nil, err
		}
		row.Date = row.Date.UTC()
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return parsed, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatBool(value bool) string {
	return strconv.FormatBool(value)
}
