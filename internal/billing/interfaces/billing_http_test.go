package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billingapp "sensei-backoffice/internal/billing/application"
	billing "sensei-backoffice/internal/billing/domain"
	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/finance/infrastructure/memory"
	"sensei-backoffice/internal/messaging/evolution"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type countingGateway struct {
	numbers []string
}

func (g *countingGateway) SendText(_ context.Context, _, number, _ string) (evolution.SendResult, error) {
	g.numbers = append(g.numbers, number)
	return evolution.SendResult{MessageID: "m"}, nil
}

func newTestHandler(t *testing.T, gateway billingapp.Gateway) *BillingHandler {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)}
	subs := &memory.SubscriptionSource{Subscriptions: []finance.Subscription{
		{StudentID: "stu-ana", StudentName: "Ana Lima", Phone: "11999990001", PlanName: "Adulto", Amount: decimal.NewFromInt(150), DueDay: 16},
		{StudentID: "stu-bruno", StudentName: "Bruno", Phone: "11999990002", PlanName: "Kids", Amount: decimal.NewFromInt(120), DueDay: 15},
	}}
	ledger, err := financeapp.NewLedgerService(memory.NewEntryRepository(time.UTC), memory.NewFixedExpenseRepository(), subs,
		financeapp.WithClock(clock))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	messages, err := billingapp.NewMessages(billingapp.MessagesConfig{})
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var disp *billingapp.Dispatcher
	if gateway != nil {
		disp, err = billingapp.NewDispatcher(gateway, billingapp.GatewayConfig{}, billingapp.WithDelay(0))
		if err != nil {
			t.Fatalf("dispatcher: %v", err)
		}
	}
	service, err := billingapp.NewService(ledger, billingapp.NewSelector(messages, time.UTC), disp, 0)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	bot, err := billingapp.NewReminderBot(subs, gateway, billingapp.GatewayConfig{}, messages,
		billingapp.WithReminderClock(clock))
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	handler, err := NewBillingHandler(service, WithReminderBot(bot))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func TestBillingHandler_Candidates(t *testing.T) {
	handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/candidates", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Candidates []billing.Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Candidates) != 1 || payload.Candidates[0].Kind != billing.KindPreventive || payload.Candidates[0].Name != "Ana Lima" {
		t.Fatalf("unexpected candidates: %+v", payload.Candidates)
	}
}

func TestBillingHandler_SendWithoutGateway(t *testing.T) {
	handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/send", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestBillingHandler_SendSelected(t *testing.T) {
	gateway := &countingGateway{}
	handler := newTestHandler(t, gateway)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"entry_ids":["ghost-student-stu-ana-2026-03-16"]}`)
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/send", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var result billing.BatchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Sent != 1 || len(gateway.numbers) != 1 || gateway.numbers[0] != "5511999990001" {
		t.Fatalf("unexpected send: %+v %v", result, gateway.numbers)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/send", strings.NewReader(`{"entry_ids":["nope"]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty batch, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/send", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestBillingHandler_ReminderDryRun(t *testing.T) {
	handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/reminders", strings.NewReader(`{"dry_run":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var report billing.ReminderReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.DryRun || report.Processed != 1 || report.Sent != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/reminders", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for a live run without gateway, got %d", rec.Code)
	}
}

func TestBillingHandler_Routing(t *testing.T) {
	handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/billing/candidates", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
