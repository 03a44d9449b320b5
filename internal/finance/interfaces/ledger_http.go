package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sensei-backoffice/internal/audit"
	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/observability/metrics"
	"sensei-backoffice/internal/validation"
)

const apiPrefix = "/api/v1/finance/"

// LedgerHandler serves the finance API under /api/v1/finance.
type LedgerHandler struct {
	ledger      *financeapp.LedgerService
	templates   *financeapp.FixedExpenseService
	payroll     *financeapp.PayrollService
	auditLogger audit.Logger
	gymName     func(ctx context.Context) string
}

// HandlerOption configures a LedgerHandler.
type HandlerOption func(*LedgerHandler)

// WithFixedExpenses enables the fixed-expense routes.
func WithFixedExpenses(service *financeapp.FixedExpenseService) HandlerOption {
	return func(h *LedgerHandler) { h.templates = service }
}

// WithPayroll enables the payroll routes.
func WithPayroll(service *financeapp.PayrollService) HandlerOption {
	return func(h *LedgerHandler) { h.payroll = service }
}

// WithAuditLogger records mutating calls.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *LedgerHandler) { h.auditLogger = logger }
}

// WithGymName sets the academy name printed on receipts.
func WithGymName(fn func(ctx context.Context) string) HandlerOption {
	return func(h *LedgerHandler) { h.gymName = fn }
}

// NewLedgerHandler constructs a handler.
func NewLedgerHandler(ledger *financeapp.LedgerService, opts ...HandlerOption) (*LedgerHandler, error) {
	if ledger == nil {
		return nil, errors.New("ledger handler: nil service")
	}
	h := &LedgerHandler{ledger: ledger}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// ServeHTTP routes finance requests.
func (h *LedgerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/"), "/")
	method := r.Method

	switch {
	case len(parts) == 1 && method == http.MethodGet:
		switch parts[0] {
		case "ledger":
			h.handleLedger(w, r)
			return
		case "summary":
			h.handleSummary(w, r)
			return
		case "cashflow":
			h.handleCashFlow(w, r)
			return
		case "payables":
			h.handlePayables(w, r)
			return
		case "receivables":
			h.handleReceivables(w, r)
			return
		case "breakdown":
			h.handleBreakdown(w, r)
			return
		case "mrr":
			h.handleMRR(w, r)
			return
		case "export.pdf", "export.xlsx":
			h.handleExport(w, r, strings.TrimPrefix(parts[0], "export."))
			return
		case "payroll":
			h.handlePayroll(w, r)
			return
		case "fixed-expenses":
			h.handleListTemplates(w, r)
			return
		}
	case len(parts) == 1 && parts[0] == "entries" && method == http.MethodPost:
		h.handleCreate(w, r)
		return
	case len(parts) == 1 && parts[0] == "fixed-expenses" && method == http.MethodPost:
		h.handleCreateTemplate(w, r)
		return
	case len(parts) == 2 && parts[0] == "entries":
		switch method {
		case http.MethodGet:
			h.handleGet(w, r, parts[1])
			return
		case http.MethodPut:
			h.handleUpdate(w, r, parts[1])
			return
		case http.MethodDelete:
			h.handleDelete(w, r, parts[1])
			return
		}
	case len(parts) == 2 && parts[0] == "fixed-expenses" && method == http.MethodPut:
		h.handleUpdateTemplate(w, r, parts[1])
		return
	case len(parts) == 3 && method == http.MethodPost:
		switch {
		case parts[0] == "entries" && parts[2] == "toggle":
			h.handleToggle(w, r, parts[1])
			return
		case parts[0] == "ghosts" && parts[2] == "settle":
			h.handleSettle(w, r, parts[1])
			return
		case parts[0] == "students" && parts[2] == "tuition":
			h.handleReceiveTuition(w, r, parts[1])
			return
		case parts[0] == "payroll" && parts[2] == "pay":
			h.handlePay(w, r, parts[1])
			return
		case parts[0] == "fixed-expenses" && parts[2] == "active":
			h.handleSetActive(w, r, parts[1])
			return
		}
	case len(parts) == 3 && parts[0] == "entries" && parts[2] == "receipt.pdf" && method == http.MethodGet:
		h.handleReceipt(w, r, parts[1])
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *LedgerHandler) handleLedger(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	view, err := h.ledger.Ledger(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *LedgerHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	summary, err := h.ledger.Summary(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *LedgerHandler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	points, err := h.ledger.CashFlow(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *LedgerHandler) handlePayables(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	payables, err := h.ledger.Payables(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payables)
}

func (h *LedgerHandler) handleReceivables(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	receivables, err := h.ledger.Receivables(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receivables)
}

func (h *LedgerHandler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	breakdown, err := h.ledger.ExpenseBreakdown(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *LedgerHandler) handleMRR(w http.ResponseWriter, r *http.Request) {
	mrr, err := h.ledger.MonthlyRecurringRevenue(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mrr": mrr})
}

type entryRequest struct {
	Type           finance.EntryType   `json:"type"`
	Category       string              `json:"category"`
	Description    string              `json:"description"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         finance.EntryStatus `json:"status"`
	DueDate        string              `json:"due_date"`
	RelatedPartyID string              `json:"related_party_id"`
}

func (req entryRequest) input() (financeapp.EntryInput, error) {
	input := financeapp.EntryInput{
		Type:           req.Type,
		Category:       req.Category,
		Description:    req.Description,
		Amount:         req.Amount,
		Status:         req.Status,
		RelatedPartyID: req.RelatedPartyID,
	}
	if req.DueDate != "" {
		due, err := time.Parse(finance.DateLayout, req.DueDate)
		if err != nil {
			return input, fmt.Errorf("%w: due_date must be YYYY-MM-DD", finance.ErrInvalidPeriod)
		}
		input.DueDate = &due
	}
	return input, nil
}

func (h *LedgerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	input, err := req.input()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	entry, err := h.ledger.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
	audit.FromRequest(h.auditLogger, r, "finance.entry.create", "transaction", entry.ID, map[string]any{
		"type":   entry.Type,
		"amount": entry.Amount.String(),
	})
}

func (h *LedgerHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.ledger.Entry(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *LedgerHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	input, err := req.input()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	entry, err := h.ledger.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
	audit.FromRequest(h.auditLogger, r, "finance.entry.update", "transaction", entry.ID, nil)
}

func (h *LedgerHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	audit.FromRequest(h.auditLogger, r, "finance.entry.delete", "transaction", id, nil)
}

func (h *LedgerHandler) handleToggle(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.ledger.ToggleStatus(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
	audit.FromRequest(h.auditLogger, r, "finance.entry.toggle", "transaction", entry.ID, map[string]any{
		"status": entry.Status,
	})
}

func (h *LedgerHandler) handleSettle(w http.ResponseWriter, r *http.Request, ghostID string) {
	entry, err := h.ledger.Settle(r.Context(), ghostID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
	audit.FromRequest(h.auditLogger, r, "finance.ghost.settle", "transaction", entry.ID, map[string]any{
		"ghost_id": ghostID,
	})
}

func (h *LedgerHandler) handleReceiveTuition(w http.ResponseWriter, r *http.Request, studentID string) {
	entry, err := h.ledger.ReceiveTuition(r.Context(), studentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
	audit.FromRequest(h.auditLogger, r, "finance.tuition.receive", "student", studentID, map[string]any{
		"entry_id": entry.ID,
	})
}

func (h *LedgerHandler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	period, err := h.periodFromRequest(r)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	view, err := h.ledger.Ledger(r.Context(), period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	summary, err := h.ledger.Summary(r.Context(), period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	report := Report{
		Period:      period,
		Summary:     summary,
		Entries:     view.Realized,
		GeneratedAt: time.Now().In(h.ledger.Location()),
		Location:    h.ledger.Location(),
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = BuildLedgerPDF(report)
		contentType = "application/pdf"
	default:
		data, err = BuildLedgerXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("relatorio_financeiro_%s.%s", h.ledger.Today().Format(finance.DateLayout), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	audit.FromRequest(h.auditLogger, r, "finance.export", "ledger", period.String(), map[string]any{"format": format})
}

func (h *LedgerHandler) handleReceipt(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("receipt", result, time.Since(start))
	}()

	entry, err := h.ledger.Entry(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	receipt := Receipt{
		Entry:       *entry,
		PayerName:   r.URL.Query().Get("payer"),
		GeneratedAt: time.Now().In(h.ledger.Location()),
	}
	if h.gymName != nil {
		receipt.GymName = h.gymName(r.Context())
	}
	data, err := BuildReceiptPDF(receipt)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export receipt error", http.StatusInternalServerError)
		return
	}
	short := entry.ID
	if len(short) > 8 {
		short = short[:8]
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "recibo_"+short+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *LedgerHandler) handlePayroll(w http.ResponseWriter, r *http.Request) {
	if h.payroll == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	lines, err := h.payroll.Payroll(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *LedgerHandler) handlePay(w http.ResponseWriter, r *http.Request, professorID string) {
	if h.payroll == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	period, err := h.periodFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	entry, err := h.payroll.PayProfessor(r.Context(), period, professorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
	audit.FromRequest(h.auditLogger, r, "finance.payroll.pay", "professor", professorID, map[string]any{
		"entry_id": entry.ID,
		"amount":   entry.Amount.String(),
		"period":   period.String(),
	})
}

func (h *LedgerHandler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := h.templates.List(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LedgerHandler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var input financeapp.FixedExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	template, err := h.templates.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
	audit.FromRequest(h.auditLogger, r, "finance.fixed_expense.create", "fixed_expense", template.ID, nil)
}

func (h *LedgerHandler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request, id string) {
	if h.templates == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var input financeapp.FixedExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	template, err := h.templates.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
	audit.FromRequest(h.auditLogger, r, "finance.fixed_expense.update", "fixed_expense", template.ID, nil)
}

func (h *LedgerHandler) handleSetActive(w http.ResponseWriter, r *http.Request, id string) {
	if h.templates == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.templates.SetActive(r.Context(), id, req.Active); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
	audit.FromRequest(h.auditLogger, r, "finance.fixed_expense.active", "fixed_expense", id, map[string]any{"active": req.Active})
}

// periodFromRequest reads ?start=&end= when both are set, else ?preset=.
func (h *LedgerHandler) periodFromRequest(r *http.Request) (finance.Period, error) {
	query := r.URL.Query()
	startText, endText := query.Get("start"), query.Get("end")
	if startText != "" || endText != "" {
		start, err := time.Parse(finance.DateLayout, startText)
		if err != nil {
			return finance.Period{}, fmt.Errorf("%w: start must be YYYY-MM-DD", finance.ErrInvalidPeriod)
		}
		end, err := time.Parse(finance.DateLayout, endText)
		if err != nil {
			return finance.Period{}, fmt.Errorf("%w: end must be YYYY-MM-DD", finance.ErrInvalidPeriod)
		}
		return finance.NewPeriod(start, end)
	}
	return h.ledger.ResolvePeriod(finance.Preset(query.Get("preset")))
}

// ExportCSV renders the merged ledger of the request's period as CSV.
func (h *LedgerHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("csv", result, time.Since(start))
	}()
	if r.Method != http.MethodGet {
		result = metrics.ResultError
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	period, err := h.periodFromRequest(r)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	view, err := h.ledger.Ledger(r.Context(), period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, view.Entries, h.ledger.Location()); err != nil {
		result = metrics.ResultError
		http.Error(w, "export csv error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
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
	if fields := validation.Fields(err); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	switch {
	case errors.Is(err, finance.ErrNotFound), errors.Is(err, finance.ErrGhostNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, finance.ErrAlreadyPaid), errors.Is(err, finance.ErrProjectedReadOnly):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, finance.ErrInvalidPeriod),
		errors.Is(err, finance.ErrUnknownPreset),
		errors.Is(err, finance.ErrInvalidGhostID),
		errors.Is(err, finance.ErrInvalidEntryType),
		errors.Is(err, finance.ErrInvalidStatus),
		errors.Is(err, finance.ErrInvalidAmount),
		errors.Is(err, finance.ErrEmptyCategory),
		errors.Is(err, finance.ErrEmptyID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
