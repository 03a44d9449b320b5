// Package audit records who changed money, messages or belts, and when.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one operator action: a settlement, a WhatsApp batch, a sale, a
// promotion or an export.
type Entry struct {
	ID           string          `json:"id"`
	Actor        string          `json:"actor"`
	ActorName    string          `json:"actor_name,omitempty"`
	Role         string          `json:"role"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	IP           string          `json:"ip,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Logger persists entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Prepare assigns an id and timestamp when missing. A "null" metadata payload
// is dropped.
func Prepare(entry Entry, now time.Time) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now.UTC()
	}
	if string(entry.Metadata) == "null" {
		entry.Metadata = nil
	}
	return entry
}
