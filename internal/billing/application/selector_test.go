package application

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billing "sensei-backoffice/internal/billing/domain"
	finance "sensei-backoffice/internal/finance/domain"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := finance.Date(y, m, d)
	return &t
}

func tuition(id, name, phone string, status finance.EntryStatus, due *time.Time) finance.Entry {
	return finance.Entry{
		ID:          id,
		Type:        finance.EntryTypeIncome,
		Category:    finance.CategoryTuition,
		Description: name,
		Amount:      decimal.NewFromInt(150),
		Status:      status,
		DueDate:     due,
		Phone:       phone,
		CreatedAt:   time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC),
	}
}

func mustMessages(t *testing.T) *Messages {
	t.Helper()
	m, err := NewMessages(MessagesConfig{})
	if err != nil {
		t.Fatalf("new messages: %v", err)
	}
	return m
}

func TestSelector_Classification(t *testing.T) {
	today := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	createdTwoDaysAgo := tuition("e-created", "Caio", "11 98888-7777", finance.EntryStatusPending, nil)
	createdTwoDaysAgo.CreatedAt = time.Date(2026, time.March, 13, 10, 0, 0, 0, time.UTC)
	expense := tuition("e-expense", "Fornecedor", "11 90000-0000", finance.EntryStatusPending, datePtr(2026, time.March, 16))
	expense.Type = finance.EntryTypeExpense

	entries := []finance.Entry{
		tuition("e-tomorrow", "Ana Lima", "(11) 99999-0000", finance.EntryStatusPending, datePtr(2026, time.March, 16)),
		tuition("e-4late", "Bruno", "11999990001", finance.EntryStatusPending, datePtr(2026, time.March, 11)),
		tuition("e-3late", "Carla", "11999990002", finance.EntryStatusPending, datePtr(2026, time.March, 12)),
		tuition("e-today", "Davi", "11999990003", finance.EntryStatusPending, datePtr(2026, time.March, 15)),
		tuition("e-nophone", "Eva", "", finance.EntryStatusPending, datePtr(2026, time.March, 16)),
		tuition("e-paid", "Fabio", "11999990004", finance.EntryStatusPaid, datePtr(2026, time.March, 16)),
		tuition("e-overdue-status", "Gil", "11999990005", finance.EntryStatusOverdue, datePtr(2026, time.March, 11)),
		tuition("e-badphone", "Hana", "n/a", finance.EntryStatusPending, datePtr(2026, time.March, 16)),
		expense,
		createdTwoDaysAgo,
	}

	candidates, err := NewSelector(mustMessages(t), time.UTC).Select(entries, today)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(candidates), candidates)
	}

	pre := candidates[0]
	if pre.EntryID != "e-tomorrow" || pre.Kind != billing.KindPreventive || pre.DaysDiff != 1 {
		t.Fatalf("unexpected preventive candidate: %+v", pre)
	}
	if pre.Message != "Olá Ana Lima! Lembra que sua mensalidade de R$ 150,00 vence amanhã? 🥋" {
		t.Fatalf("unexpected preventive message: %q", pre.Message)
	}
	if !pre.Selected || pre.Status != billing.StatusPending {
		t.Fatalf("candidates must start selected and pending: %+v", pre)
	}

	late := candidates[1]
	if late.EntryID != "e-4late" || late.Kind != billing.KindOverdue || late.DaysDiff != 4 {
		t.Fatalf("unexpected overdue candidate: %+v", late)
	}
	if !strings.Contains(late.Message, "R$ 150,00 (4 dias de atraso)") {
		t.Fatalf("unexpected overdue message: %q", late.Message)
	}

	created := candidates[2]
	if created.EntryID != "e-created" || created.Kind != billing.KindOverdue || created.DaysDiff != 2 {
		t.Fatalf("entry without due date should fall back to creation day: %+v", created)
	}
}

func TestSelector_UntaggedNameFallback(t *testing.T) {
	entry := tuition("e-1", "", "11999990000", finance.EntryStatusPending, datePtr(2026, time.March, 16))
	candidates, err := NewSelector(mustMessages(t), time.UTC).Select([]finance.Entry{entry}, time.Date(2026, time.March, 15, 22, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Name != "Aluno" || !strings.HasPrefix(candidates[0].Message, "Olá Aluno!") {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestSelector_CustomTemplate(t *testing.T) {
	messages, err := NewMessages(MessagesConfig{Overdue: "{{.Name}} deve {{.Value}} há {{.Days}} dias"})
	if err != nil {
		t.Fatalf("new messages: %v", err)
	}
	entry := tuition("e-1", "Bruno", "11999990000", finance.EntryStatusPending, datePtr(2026, time.March, 9))
	candidates, err := NewSelector(messages, time.UTC).Select([]finance.Entry{entry}, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Message != "Bruno deve R$ 150,00 há 6 dias" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}

	if _, err := NewMessages(MessagesConfig{Preventive: "{{.Name"}); err == nil {
		t.Fatalf("expected template parse error")
	}
}
