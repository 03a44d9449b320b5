package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
)

const defaultEntriesTable = "transactions"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EntryRepository persists ledger entries in the transactions table. The
// category column keeps the "[Tag] text" label; it is split here.
type EntryRepository struct {
	db       DBTX
	table    string
	timeZone string
}

// EntryOption configures an EntryRepository.
type EntryOption func(*EntryRepository)

// WithEntriesTable overrides the table name.
func WithEntriesTable(table string) EntryOption {
	return func(r *EntryRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithTimeZone sets the zone used to date entries that have no due date.
func WithTimeZone(name string) EntryOption {
	return func(r *EntryRepository) {
		if name != "" {
			r.timeZone = name
		}
	}
}

// NewEntryRepository constructs a repository.
func NewEntryRepository(db DBTX, opts ...EntryOption) *EntryRepository {
	repo := &EntryRepository{db: db, table: defaultEntriesTable, timeZone: "UTC"}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

const entryColumns = `t.id, t.type, t.category, t.amount, t.status, t.due_date,
	t.related_user_id, t.fixed_expense_id, t.created_at, s.phone`

// ListByPeriod returns entries whose due date, or creation day when unset,
// falls in the period.
func (r *EntryRepository) ListByPeriod(ctx context.Context, period finance.Period) ([]finance.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s t
LEFT JOIN students s ON s.id = t.related_user_id
WHERE COALESCE(t.due_date, (t.created_at AT TIME ZONE $3)::date) BETWEEN $1 AND $2
ORDER BY t.created_at, t.id`, entryColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, period.Start, period.End, r.timeZone)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListPending returns unpaid entries of a type.
func (r *EntryRepository) ListPending(ctx context.Context, entryType finance.EntryType) ([]finance.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s t
LEFT JOIN students s ON s.id = t.related_user_id
WHERE t.type = $1 AND t.status <> 'paid'
ORDER BY COALESCE(t.due_date, t.created_at::date), t.id`, entryColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, string(entryType))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Get loads an entry by id.
func (r *EntryRepository) Get(ctx context.Context, id string) (*finance.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s t
LEFT JOIN students s ON s.id = t.related_user_id
WHERE t.id = $1`, entryColumns, r.table)
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// Create inserts an entry.
func (r *EntryRepository) Create(ctx context.Context, entry *finance.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	if entry == nil {
		return errors.New("entry repo: nil entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, type, category, amount, status, due_date, related_user_id, fixed_expense_id, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Type),
		entry.Label(),
		entry.Amount,
		string(entry.Status),
		nullDate(entry.DueDate),
		nullString(entry.RelatedPartyID),
		nullString(entry.FixedExpenseID),
		entry.CreatedAt,
	)
	return err
}

// Update overwrites the editable columns of an entry.
func (r *EntryRepository) Update(ctx context.Context, entry *finance.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	if entry == nil {
		return errors.New("entry repo: nil entry")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	type = $2, category = $3, amount = $4, status = $5, due_date = $6, related_user_id = $7
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Type),
		entry.Label(),
		entry.Amount,
		string(entry.Status),
		nullDate(entry.DueDate),
		nullString(entry.RelatedPartyID),
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// UpdateStatus sets an entry's status.
func (r *EntryRepository) UpdateStatus(ctx context.Context, id string, status finance.EntryStatus) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1`, r.table), id, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*finance.Entry, error) {
	var (
		entry        finance.Entry
		entryType    string
		label        string
		status       string
		dueDate      sql.NullTime
		relatedParty sql.NullString
		fixedExpense sql.NullString
		phone        sql.NullString
	)
	if err := row.Scan(
		&entry.ID,
		&entryType,
		&label,
		&entry.Amount,
		&status,
		&dueDate,
		&relatedParty,
		&fixedExpense,
		&entry.CreatedAt,
		&phone,
	); err != nil {
		return nil, err
	}
	entry.Type = finance.EntryType(entryType)
	entry.Status = finance.EntryStatus(status)
	entry.Category, entry.Description = finance.ParseLabel(label)
	if dueDate.Valid {
		d := finance.Date(dueDate.Time.Year(), dueDate.Time.Month(), dueDate.Time.Day())
		entry.DueDate = &d
	}
	entry.RelatedPartyID = relatedParty.String
	entry.FixedExpenseID = fixedExpense.String
	entry.Phone = phone.String
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]finance.Entry, error) {
	defer rows.Close()
	var out []finance.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullDate(value *time.Time) sql.NullTime {
	if value == nil || value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return finance.ErrNotFound
	}
	return nil
}
