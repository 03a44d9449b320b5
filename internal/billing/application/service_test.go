package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billing "sensei-backoffice/internal/billing/domain"
	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/finance/infrastructure/memory"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time { return c.now }

func newBillingLedger(t *testing.T) *financeapp.LedgerService {
	t.Helper()
	entries := memory.NewEntryRepository(time.UTC)
	due := finance.Date(2026, time.February, 27)
	if err := entries.Create(context.Background(), &finance.Entry{
		ID:             "txn-feb",
		Type:           finance.EntryTypeIncome,
		Category:       finance.CategoryTuition,
		Description:    "Ana Lima",
		Amount:         decimal.NewFromInt(150),
		Status:         finance.EntryStatusPending,
		DueDate:        &due,
		CreatedAt:      time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC),
		RelatedPartyID: "stu-ana",
		Phone:          "11999990001",
	}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	subs := &memory.SubscriptionSource{Subscriptions: []finance.Subscription{
		{StudentID: "stu-ana", StudentName: "Ana Lima", Phone: "11999990001", Amount: decimal.NewFromInt(150), DueDay: 16},
		{StudentID: "stu-bruno", StudentName: "Bruno", Phone: "11999990002", Amount: decimal.NewFromInt(200), DueDay: 11},
		{StudentID: "stu-caio", StudentName: "Caio", Phone: "11999990003", Amount: decimal.NewFromInt(200), DueDay: 12},
		{StudentID: "stu-duda", StudentName: "Duda", Amount: decimal.NewFromInt(200), DueDay: 16},
	}}
	ledger, err := financeapp.NewLedgerService(entries, memory.NewFixedExpenseRepository(), subs,
		financeapp.WithClock(stubClock{now: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func newBillingService(t *testing.T, lookback int, gateway Gateway) *Service {
	t.Helper()
	var disp *Dispatcher
	if gateway != nil {
		var err error
		disp, err = NewDispatcher(gateway, GatewayConfig{}, WithSleep(func(context.Context, time.Duration) error { return nil }))
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}
	}
	service, err := NewService(newBillingLedger(t), NewSelector(mustMessages(t), time.UTC), disp, lookback)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func candidateIDs(candidates []billing.Candidate) map[string]billing.Candidate {
	out := make(map[string]billing.Candidate, len(candidates))
	for _, c := range candidates {
		out[c.EntryID] = c
	}
	return out
}

func TestService_Window(t *testing.T) {
	service := newBillingService(t, 2, nil)
	window := service.Window(finance.Date(2026, time.March, 31))
	if !window.Start.Equal(finance.Date(2026, time.January, 1)) {
		t.Fatalf("unexpected start %s", window.Start)
	}
	if !window.End.Equal(finance.Date(2026, time.April, 30)) {
		t.Fatalf("unexpected end %s", window.End)
	}
}

func TestService_CandidatesFromProjections(t *testing.T) {
	service := newBillingService(t, 0, nil)
	candidates, err := service.Candidates(context.Background())
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	byID := candidateIDs(candidates)
	if len(byID) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}
	ana, ok := byID["ghost-student-stu-ana-2026-03-16"]
	if !ok || ana.Kind != billing.KindPreventive || !ana.Projected {
		t.Fatalf("unexpected Ana candidate: %+v", ana)
	}
	bruno, ok := byID["ghost-student-stu-bruno-2026-03-11"]
	if !ok || bruno.Kind != billing.KindOverdue || bruno.DaysDiff != 4 {
		t.Fatalf("unexpected Bruno candidate: %+v", bruno)
	}
}

func TestService_LookbackReachesOlderReceivables(t *testing.T) {
	service := newBillingService(t, 1, nil)
	candidates, err := service.Candidates(context.Background())
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	byID := candidateIDs(candidates)
	if c, ok := byID["txn-feb"]; !ok || c.DaysDiff != 16 || c.Projected {
		t.Fatalf("expected the February entry 16 days late, got %+v", candidates)
	}
	if c, ok := byID["ghost-student-stu-bruno-2026-02-11"]; !ok || c.DaysDiff != 32 {
		t.Fatalf("expected Bruno's February projection, got %+v", candidates)
	}
	if len(byID) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(byID))
	}
}

func TestService_SendSelection(t *testing.T) {
	gateway := &fakeGateway{}
	service := newBillingService(t, 0, gateway)
	ctx := context.Background()

	result, err := service.Send(ctx, []string{"ghost-student-stu-ana-2026-03-16"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(gateway.sent) != 1 || gateway.sent[0].number != "5511999990001" {
		t.Fatalf("unexpected gateway calls: %+v", gateway.sent)
	}
	if result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, c := range result.Candidates {
		if c.EntryID != "ghost-student-stu-ana-2026-03-16" && c.Status != billing.StatusPending {
			t.Fatalf("unselected candidate was touched: %+v", c)
		}
	}

	if _, err := service.Send(ctx, []string{"txn-unknown"}); !errors.Is(err, billing.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}

	result, err = service.Send(ctx, nil)
	if err != nil {
		t.Fatalf("send all: %v", err)
	}
	if result.Sent != 2 || len(gateway.sent) != 3 {
		t.Fatalf("expected every candidate sent, got %+v and %d calls", result, len(gateway.sent))
	}
}

func TestService_SendWithoutGateway(t *testing.T) {
	service := newBillingService(t, 0, nil)
	if _, err := service.Send(context.Background(), nil); !errors.Is(err, billing.ErrGatewayNotConfigured) {
		t.Fatalf("expected ErrGatewayNotConfigured, got %v", err)
	}
}
