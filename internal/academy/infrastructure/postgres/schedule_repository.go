package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	academy "sensei-backoffice/internal/academy/domain"
)

// ClassRepository persists classes and reads sessions.
type ClassRepository struct {
	db    DBTX
	types *pgtype.Map
}

// NewClassRepository constructs a repository.
func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db, types: pgtype.NewMap()}
}

func (r *ClassRepository) ListClasses(ctx context.Context) ([]academy.Class, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("class repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, schedule_time, professor_id, days_of_week, created_at
FROM classes
ORDER BY schedule_time, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Class
	for rows.Next() {
		class, err := r.scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *class)
	}
	return out, rows.Err()
}

func (r *ClassRepository) GetClass(ctx context.Context, id string) (*academy.Class, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("class repo: nil db")
	}
	class, err := r.scanClass(r.db.QueryRowContext(ctx, `
SELECT id, name, schedule_time, professor_id, days_of_week, created_at
FROM classes
WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return class, nil
}

func (r *ClassRepository) SaveClass(ctx context.Context, class *academy.Class) error {
	if r == nil || r.db == nil {
		return errors.New("class repo: nil db")
	}
	if class == nil {
		return errors.New("class repo: nil class")
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	days := class.DaysOfWeek
	if days == nil {
		days = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO classes (id, name, schedule_time, professor_id, days_of_week, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	schedule_time = EXCLUDED.schedule_time,
	professor_id = EXCLUDED.professor_id,
	days_of_week = EXCLUDED.days_of_week`,
		class.ID, class.Name, class.ScheduleTime, nullString(class.ProfessorID), days, class.CreatedAt)
	return err
}

func (r *ClassRepository) DeleteClass(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("class repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *ClassRepository) ListSessions(ctx context.Context, from, to time.Time) ([]academy.ClassSession, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("class repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, class_id, date, professor_id, professor_present, status, notes, created_at
FROM class_sessions
WHERE date BETWEEN $1 AND $2
ORDER BY date DESC, class_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.ClassSession
	for rows.Next() {
		var (
			session     academy.ClassSession
			professorID sql.NullString
			status      string
			notes       sql.NullString
		)
		if err := rows.Scan(&session.ID, &session.ClassID, &session.Date, &professorID, &session.ProfessorPresent, &status, &notes, &session.CreatedAt); err != nil {
			return nil, err
		}
		session.ProfessorID = professorID.String
		session.Status = academy.SessionStatus(status)
		session.Notes = notes.String
		session.Date = dateOnly(session.Date)
		session.CreatedAt = session.CreatedAt.UTC()
		out = append(out, session)
	}
	return out, rows.Err()
}

func (r *ClassRepository) scanClass(row rowScanner) (*academy.Class, error) {
	var (
		class       academy.Class
		professorID sql.NullString
		days        []string
	)
	if err := row.Scan(&class.ID, &class.Name, &class.ScheduleTime, &professorID, r.types.SQLScanner(&days), &class.CreatedAt); err != nil {
		return nil, err
	}
	class.ProfessorID = professorID.String
	class.DaysOfWeek = days
	class.CreatedAt = class.CreatedAt.UTC()
	return &class, nil
}

// AttendanceRepository persists roll calls.
type AttendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository constructs a repository.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) ListForClass(ctx context.Context, classID string, date time.Time) ([]academy.Attendance, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("attendance repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, student_id, class_id, date, present, created_at
FROM attendance
WHERE class_id = $1 AND date = $2
ORDER BY student_id`, classID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Attendance
	for rows.Next() {
		var record academy.Attendance
		if err := rows.Scan(&record.ID, &record.StudentID, &record.ClassID, &record.Date, &record.Present, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.Date = dateOnly(record.Date)
		record.CreatedAt = record.CreatedAt.UTC()
		out = append(out, record)
	}
	return out, rows.Err()
}

func (r *AttendanceRepository) RecordSheet(ctx context.Context, session *academy.ClassSession, records []academy.Attendance) error {
	if r == nil || r.db == nil {
		return errors.New("attendance repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if session != nil {
		_, err = tx.ExecContext(ctx, `
INSERT INTO class_sessions (id, class_id, date, professor_id, professor_present, status, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (class_id, date) DO UPDATE SET
	professor_id = EXCLUDED.professor_id,
	professor_present = EXCLUDED.professor_present,
	status = EXCLUDED.status,
	notes = EXCLUDED.notes`,
			session.ID, session.ClassID, session.Date, nullString(session.ProfessorID), session.ProfessorPresent,
			string(session.Status), nullString(session.Notes), session.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, record := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO attendance (id, student_id, class_id, date, present, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (student_id, class_id, date) DO UPDATE SET present = EXCLUDED.present`,
			record.ID, record.StudentID, record.ClassID, record.Date, record.Present, record.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *AttendanceRepository) CountPresentSince(ctx context.Context, studentID string, since time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("attendance repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM attendance
WHERE student_id = $1 AND present AND date >= $2`, studentID, since).Scan(&count)
	return count, err
}

// GraduationRepository persists promotions.
type GraduationRepository struct {
	db *sql.DB
}

// NewGraduationRepository constructs a repository.
func NewGraduationRepository(db *sql.DB) *GraduationRepository {
	return &GraduationRepository{db: db}
}

func (r *GraduationRepository) ListByStudent(ctx context.Context, studentID string) ([]academy.Graduation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("graduation repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, student_id, belt, degrees, promotion_date, professor_id, notes, created_at
FROM student_graduations
WHERE student_id = $1
ORDER BY promotion_date DESC, created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Graduation
	for rows.Next() {
		g, err := scanGraduation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *GraduationRepository) Last(ctx context.Context, studentID string) (*academy.Graduation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("graduation repo: nil db")
	}
	g, err := scanGraduation(r.db.QueryRowContext(ctx, `
SELECT id, student_id, belt, degrees, promotion_date, professor_id, notes, created_at
FROM student_graduations
WHERE student_id = $1
ORDER BY promotion_date DESC, created_at DESC
LIMIT 1`, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func (r *GraduationRepository) Promote(ctx context.Context, g *academy.Graduation) error {
	if r == nil || r.db == nil {
		return errors.New("graduation repo: nil db")
	}
	if g == nil {
		return errors.New("graduation repo: nil graduation")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE students SET belt = $2, degrees = $3 WHERE id = $1`, g.StudentID, g.Belt, g.Degrees)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := expectOneRow(res); err != nil {
		_ = tx.Rollback()
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO student_graduations (id, student_id, belt, degrees, promotion_date, professor_id, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		g.ID, g.StudentID, g.Belt, g.Degrees, g.PromotionDate, nullString(g.ProfessorID), nullString(g.Notes), g.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanGraduation(row rowScanner) (*academy.Graduation, error) {
	var (
		g           academy.Graduation
		professorID sql.NullString
		notes       sql.NullString
	)
	if err := row.Scan(&g.ID, &g.StudentID, &g.Belt, &g.Degrees, &g.PromotionDate, &professorID, &notes, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.ProfessorID = professorID.String
	g.Notes = notes.String
	g.PromotionDate = dateOnly(g.PromotionDate)
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
