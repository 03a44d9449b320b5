package academy

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
)

// SubscriptionReader derives tuition subscriptions from enrolled students.
type SubscriptionReader struct {
	db *sql.DB
}

// NewSubscriptionReader constructs a reader.
func NewSubscriptionReader(db *sql.DB) *SubscriptionReader {
	return &SubscriptionReader{db: db}
}

// ActiveSubscriptions lists active students that have a plan.
func (r *SubscriptionReader) ActiveSubscriptions(ctx context.Context) ([]finance.Subscription, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscription reader: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.full_name, COALESCE(s.phone, ''), p.name, p.price, COALESCE(s.due_day, 0), s.created_at
FROM students s
JOIN plans p ON p.id = s.plan_id
WHERE s.status = 'active'
ORDER BY s.full_name, s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.Subscription
	for rows.Next() {
		var sub finance.Subscription
		if err := rows.Scan(&sub.StudentID, &sub.StudentName, &sub.Phone, &sub.PlanName, &sub.Amount, &sub.DueDay, &sub.Since); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// SubscriptionFor loads the subscription of one student with a plan, active
// or not, so late payments can still be recorded.
func (r *SubscriptionReader) SubscriptionFor(ctx context.Context, studentID string) (*finance.Subscription, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscription reader: nil db")
	}
	var sub finance.Subscription
	err := r.db.QueryRowContext(ctx, `
SELECT s.id, s.full_name, COALESCE(s.phone, ''), p.name, p.price, COALESCE(s.due_day, 0), s.created_at
FROM students s
JOIN plans p ON p.id = s.plan_id
WHERE s.id = $1`, studentID).Scan(&sub.StudentID, &sub.StudentName, &sub.Phone, &sub.PlanName, &sub.Amount, &sub.DueDay, &sub.Since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// WorkloadReader counts completed class sessions per professor.
type WorkloadReader struct {
	db *sql.DB
}

// NewWorkloadReader constructs a reader.
func NewWorkloadReader(db *sql.DB) *WorkloadReader {
	return &WorkloadReader{db: db}
}

// Workloads returns every professor with their completed sessions in period.
func (r *WorkloadReader) Workloads(ctx context.Context, period finance.Period) ([]finance.Workload, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workload reader: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.full_name, COALESCE(p.hourly_rate, 0), COUNT(cs.id)
FROM professors p
LEFT JOIN class_sessions cs
	ON cs.professor_id = p.id AND cs.status = 'completed' AND cs.date BETWEEN $1 AND $2
GROUP BY p.id, p.full_name, p.hourly_rate
ORDER BY p.full_name`, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.Workload
	for rows.Next() {
		var (
			w    finance.Workload
			rate decimal.Decimal
		)
		if err := rows.Scan(&w.ProfessorID, &w.ProfessorName, &rate, &w.Sessions); err != nil {
			return nil, err
		}
		w.HourlyRate = rate
		out = append(out, w)
	}
	return out, rows.Err()
}
