package interfaces

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"sensei-backoffice/internal/audit"
	billingapp "sensei-backoffice/internal/billing/application"
	billing "sensei-backoffice/internal/billing/domain"
)

const apiPrefix = "/api/v1/billing/"

// BillingHandler serves the billing automation endpoints.
type BillingHandler struct {
	service     *billingapp.Service
	reminders   *billingapp.ReminderBot
	auditLogger audit.Logger
}

// HandlerOption configures a BillingHandler.
type HandlerOption func(*BillingHandler)

// WithReminderBot enables POST /api/v1/billing/reminders.
func WithReminderBot(bot *billingapp.ReminderBot) HandlerOption {
	return func(h *BillingHandler) { h.reminders = bot }
}

// WithAuditLogger records batch sends.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *BillingHandler) { h.auditLogger = logger }
}

// NewBillingHandler constructs a handler.
func NewBillingHandler(service *billingapp.Service, opts ...HandlerOption) (*BillingHandler, error) {
	if service == nil {
		return nil, errors.New("billing handler: nil service")
	}
	h := &BillingHandler{service: service}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

type sendRequest struct {
	EntryIDs []string `json:"entry_ids"`
}

type reminderRequest struct {
	DryRun bool `json:"dry_run"`
}

// ServeHTTP routes billing requests.
func (h *BillingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	route := strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/")
	switch {
	case route == "candidates" && r.Method == http.MethodGet:
		h.handleCandidates(w, r)
	case route == "send" && r.Method == http.MethodPost:
		h.handleSend(w, r)
	case route == "reminders" && r.Method == http.MethodPost:
		h.handleReminders(w, r)
	case route == "candidates" || route == "send" || route == "reminders":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *BillingHandler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.Candidates(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if candidates == nil {
		candidates = []billing.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (h *BillingHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	result, err := h.service.Send(r.Context(), req.EntryIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
	audit.FromRequest(h.auditLogger, r, "billing.batch.send", "billing_batch", "", map[string]any{
		"requested": len(req.EntryIDs),
		"sent":      result.Sent,
		"failed":    result.Failed,
		"remaining": result.Remaining,
	})
}

func (h *BillingHandler) handleReminders(w http.ResponseWriter, r *http.Request) {
	if h.reminders == nil {
		respondServiceError(w, billing.ErrGatewayNotConfigured)
		return
	}
	var req reminderRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	report, err := h.reminders.Run(r.Context(), req.DryRun)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
	if !req.DryRun {
		audit.FromRequest(h.auditLogger, r, "billing.reminder.run", "billing_batch", "", map[string]any{
			"processed": report.Processed,
			"sent":      report.Sent,
			"errors":    report.Errors,
		})
	}
}

// decodeOptional accepts an empty body as the zero request.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, billing.ErrGatewayNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, billing.ErrEmptyBatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
