package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
)

// FixedExpenseRepository persists recurring expense templates.
type FixedExpenseRepository struct {
	db DBTX
}

// NewFixedExpenseRepository constructs a repository.
func NewFixedExpenseRepository(db DBTX) *FixedExpenseRepository {
	return &FixedExpenseRepository{db: db}
}

// List returns templates ordered by due day.
func (r *FixedExpenseRepository) List(ctx context.Context, activeOnly bool) ([]finance.FixedExpense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fixed expense repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, category, description, amount, due_day, active, created_at
FROM fixed_expenses
WHERE active OR NOT $1
ORDER BY due_day, id`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.FixedExpense
	for rows.Next() {
		template, err := scanFixedExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *template)
	}
	return out, rows.Err()
}

// Get loads a template by id.
func (r *FixedExpenseRepository) Get(ctx context.Context, id string) (*finance.FixedExpense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fixed expense repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, category, description, amount, due_day, active, created_at
FROM fixed_expenses
WHERE id = $1`, id)
	template, err := scanFixedExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return template, nil
}

// Save upserts a template.
func (r *FixedExpenseRepository) Save(ctx context.Context, template *finance.FixedExpense) error {
	if r == nil || r.db == nil {
		return errors.New("fixed expense repo: nil db")
	}
	if template == nil {
		return errors.New("fixed expense repo: nil template")
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO fixed_expenses (id, category, description, amount, due_day, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	amount = EXCLUDED.amount,
	due_day = EXCLUDED.due_day,
	active = EXCLUDED.active`,
		template.ID,
		template.Category,
		template.Description,
		template.Amount,
		template.DueDay,
		template.Active,
		template.CreatedAt,
	)
	return err
}

// SetActive toggles a template.
func (r *FixedExpenseRepository) SetActive(ctx context.Context, id string, active bool) error {
	if r == nil || r.db == nil {
		return errors.New("fixed expense repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE fixed_expenses SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func scanFixedExpense(row rowScanner) (*finance.FixedExpense, error) {
	var template finance.FixedExpense
	if err := row.Scan(
		&template.ID,
		&template.Category,
		&template.Description,
		&template.Amount,
		&template.DueDay,
		&template.Active,
		&template.CreatedAt,
	); err != nil {
		return nil, err
	}
	template.CreatedAt = template.CreatedAt.UTC()
	return &template, nil
}
