package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const maxRecent = 500

// Repository stores entries in audit_logs.
type Repository struct {
	db *sql.DB
}

// NewRepository returns nil for a nil db so callers can skip auditing.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log inserts entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	entry = Prepare(entry, time.Now())

	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (id, actor, actor_name, role, action, resource_type, resource_id, metadata, ip, user_agent, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8::jsonb, NULLIF($9, ''), NULLIF($10, ''), $11)`,
		entry.ID, entry.Actor, entry.ActorName, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID,
		metadata, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// Recent lists the newest entries, optionally only those whose action starts
// with actionPrefix.
func (r *Repository) Recent(ctx context.Context, actionPrefix string, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, actor, COALESCE(actor_name, ''), role, action, resource_type, resource_id,
	COALESCE(metadata::text, ''), COALESCE(ip, ''), COALESCE(user_agent, ''), created_at
FROM audit_logs
WHERE $1 = '' OR action LIKE $1 || '%'
ORDER BY created_at DESC
LIMIT $2`, actionPrefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry    Entry
			metadata string
		)
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.ActorName, &entry.Role, &entry.Action,
			&entry.ResourceType, &entry.ResourceID, &metadata, &entry.IP, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metadata != "" {
			entry.Metadata = []byte(metadata)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
