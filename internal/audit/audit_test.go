package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sensei-backoffice/internal/auth"

	"github.com/google/uuid"
)

type recordingLogger struct {
	entries []Entry
}

func (l *recordingLogger) Log(_ context.Context, entry Entry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func TestPrepare_FillsGeneratedFields(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	entry := Prepare(Entry{Metadata: []byte("null")}, now)
	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Fatalf("unexpected id %q: %v", entry.ID, err)
	}
	if !entry.CreatedAt.Equal(now) || entry.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected created_at %v", entry.CreatedAt)
	}
	if entry.Metadata != nil {
		t.Fatalf("null metadata should be dropped")
	}
	kept := Prepare(Entry{ID: "fixed", Metadata: []byte(`{"format":"pdf"}`)}, now)
	if kept.ID != "fixed" || string(kept.Metadata) != `{"format":"pdf"}` {
		t.Fatalf("prepare overwrote fields: %+v", kept)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIP(req); got != "10.0.0.9" {
		t.Fatalf("remote addr: got %q", got)
	}
	req.Header.Set("X-Real-IP", "172.16.0.2")
	if got := ClientIP(req); got != "172.16.0.2" {
		t.Fatalf("real ip: got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("forwarded: got %q", got)
	}
}

func TestFromRequest(t *testing.T) {
	logger := &recordingLogger{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/send", nil)

	FromRequest(logger, req, "billing.send", "billing_batch", "", nil)
	if len(logger.entries) != 0 {
		t.Fatalf("anonymous request must not be audited")
	}

	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleSecretary, "sec-1", "Joana"))
	FromRequest(logger, req, "billing.send", "billing_batch", "", map[string]any{"sent": 2})
	if len(logger.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Actor != "sec-1" || entry.ActorName != "Joana" || entry.Role != "secretary" || entry.Action != "billing.send" || string(entry.Metadata) != `{"sent":2}` {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
