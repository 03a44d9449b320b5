package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	academy "sensei-backoffice/internal/academy/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PlanRepository persists plans.
type PlanRepository struct {
	db DBTX
}

// NewPlanRepository constructs a repository.
func NewPlanRepository(db DBTX) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) List(ctx context.Context) ([]academy.Plan, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plan repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, price, weekly_limit, created_at
FROM plans
ORDER BY price, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Plan
	for rows.Next() {
		var plan academy.Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.WeeklyLimit, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plan.CreatedAt = plan.CreatedAt.UTC()
		out = append(out, plan)
	}
	return out, rows.Err()
}

func (r *PlanRepository) Get(ctx context.Context, id string) (*academy.Plan, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plan repo: nil db")
	}
	var plan academy.Plan
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, price, weekly_limit, created_at
FROM plans
WHERE id = $1`, id).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.WeeklyLimit, &plan.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	plan.CreatedAt = plan.CreatedAt.UTC()
	return &plan, nil
}

func (r *PlanRepository) Save(ctx context.Context, plan *academy.Plan) error {
	if r == nil || r.db == nil {
		return errors.New("plan repo: nil db")
	}
	if plan == nil {
		return errors.New("plan repo: nil plan")
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO plans (id, name, price, weekly_limit, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	weekly_limit = EXCLUDED.weekly_limit`,
		plan.ID, plan.Name, plan.Price, plan.WeeklyLimit, plan.CreatedAt)
	return err
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("plan repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// StudentRepository persists students.
type StudentRepository struct {
	db DBTX
}

// NewStudentRepository constructs a repository.
func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, full_name, phone, email, plan_id, status, due_day, modality, belt, degrees, created_at`

func (r *StudentRepository) List(ctx context.Context, filter academy.StudentFilter) ([]academy.Student, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("student repo: nil db")
	}
	search := ""
	if s := strings.TrimSpace(filter.Search); s != "" {
		search = "%" + strings.ToLower(s) + "%"
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+studentColumns+`
FROM students
WHERE ($1 = '' OR status = $1)
	AND ($2 = '' OR lower(full_name) LIKE $2)
ORDER BY full_name, id`, string(filter.Status), search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *student)
	}
	return out, rows.Err()
}

func (r *StudentRepository) Get(ctx context.Context, id string) (*academy.Student, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("student repo: nil db")
	}
	student, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return student, nil
}

func (r *StudentRepository) Save(ctx context.Context, student *academy.Student) error {
	if r == nil || r.db == nil {
		return errors.New("student repo: nil db")
	}
	if student == nil {
		return errors.New("student repo: nil student")
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO students (`+studentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	plan_id = EXCLUDED.plan_id,
	status = EXCLUDED.status,
	due_day = EXCLUDED.due_day,
	modality = EXCLUDED.modality,
	belt = EXCLUDED.belt,
	degrees = EXCLUDED.degrees`,
		student.ID,
		student.FullName,
		nullString(student.Phone),
		nullString(student.Email),
		nullString(student.PlanID),
		string(student.Status),
		nullInt(student.DueDay),
		nullString(student.Modality),
		nullString(student.Belt),
		student.Degrees,
		student.CreatedAt,
	)
	return err
}

func (r *StudentRepository) CountByPlan(ctx context.Context, planID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("student repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE plan_id = $1`, planID).Scan(&count)
	return count, err
}

func scanStudent(row rowScanner) (*academy.Student, error) {
	var (
		student  academy.Student
		phone    sql.NullString
		email    sql.NullString
		planID   sql.NullString
		status   string
		dueDay   sql.NullInt64
		modality sql.NullString
		belt     sql.NullString
		degrees  sql.NullInt64
	)
	if err := row.Scan(
		&student.ID,
		&student.FullName,
		&phone,
		&email,
		&planID,
		&status,
		&dueDay,
		&modality,
		&belt,
		&degrees,
		&student.CreatedAt,
	); err != nil {
		return nil, err
	}
	student.Phone = phone.String
	student.Email = email.String
	student.PlanID = planID.String
	student.Status = academy.StudentStatus(status)
	student.DueDay = int(dueDay.Int64)
	student.Modality = modality.String
	student.Belt = belt.String
	student.Degrees = int(degrees.Int64)
	student.CreatedAt = student.CreatedAt.UTC()
	return &student, nil
}

// ProfessorRepository persists professors.
type ProfessorRepository struct {
	db DBTX
}

// NewProfessorRepository constructs a repository.
func NewProfessorRepository(db DBTX) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

func (r *ProfessorRepository) List(ctx context.Context) ([]academy.Professor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("professor repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, full_name, COALESCE(modality, ''), COALESCE(hourly_rate, 0), created_at
FROM professors
ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academy.Professor
	for rows.Next() {
		var professor academy.Professor
		if err := rows.Scan(&professor.ID, &professor.FullName, &professor.Modality, &professor.HourlyRate, &professor.CreatedAt); err != nil {
			return nil, err
		}
		professor.CreatedAt = professor.CreatedAt.UTC()
		out = append(out, professor)
	}
	return out, rows.Err()
}

func (r *ProfessorRepository) Get(ctx context.Context, id string) (*academy.Professor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("professor repo: nil db")
	}
	var professor academy.Professor
	err := r.db.QueryRowContext(ctx, `
SELECT id, full_name, COALESCE(modality, ''), COALESCE(hourly_rate, 0), created_at
FROM professors
WHERE id = $1`, id).Scan(&professor.ID, &professor.FullName, &professor.Modality, &professor.HourlyRate, &professor.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	professor.CreatedAt = professor.CreatedAt.UTC()
	return &professor, nil
}

func (r *ProfessorRepository) Save(ctx context.Context, professor *academy.Professor) error {
	if r == nil || r.db == nil {
		return errors.New("professor repo: nil db")
	}
	if professor == nil {
		return errors.New("professor repo: nil professor")
	}
	if professor.CreatedAt.IsZero() {
		professor.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO professors (id, full_name, modality, hourly_rate, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	modality = EXCLUDED.modality,
	hourly_rate = EXCLUDED.hourly_rate`,
		professor.ID, professor.FullName, nullString(professor.Modality), professor.HourlyRate, professor.CreatedAt)
	return err
}

func (r *ProfessorRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("professor repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM professors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// GymRepository persists the single gym_info row.
type GymRepository struct {
	db DBTX
}

// NewGymRepository constructs a repository.
func NewGymRepository(db DBTX) *GymRepository {
	return &GymRepository{db: db}
}

func (r *GymRepository) Get(ctx context.Context) (*academy.GymInfo, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("gym repo: nil db")
	}
	var (
		info  academy.GymInfo
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT name, phone, updated_at
FROM gym_info
ORDER BY updated_at DESC
LIMIT 1`).Scan(&info.Name, &phone, &info.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	info.Phone = phone.String
	info.UpdatedAt = info.UpdatedAt.UTC()
	return &info, nil
}

func (r *GymRepository) Save(ctx context.Context, info *academy.GymInfo) error {
	if r == nil || r.db == nil {
		return errors.New("gym repo: nil db")
	}
	if info == nil {
		return errors.New("gym repo: nil info")
	}
	if info.UpdatedAt.IsZero() {
		info.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO gym_info (id, name, phone, created_at, updated_at)
VALUES (1, $1, $2, $3, $3)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	updated_at = EXCLUDED.updated_at`,
		info.Name, nullString(info.Phone), info.UpdatedAt)
	return err
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullInt(value int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(value), Valid: value != 0}
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return academy.ErrNotFound
	}
	return nil
}
