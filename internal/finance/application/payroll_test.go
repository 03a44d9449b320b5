package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/finance/infrastructure/memory"
)

func TestPayrollService_PayOnce(t *testing.T) {
	entries := memory.NewEntryRepository(time.UTC)
	workloads := &memory.WorkloadSource{Items: []finance.Workload{
		{ProfessorID: "prof-carlos", ProfessorName: "Carlos", HourlyRate: decimal.NewFromInt(50), Sessions: 8},
		{ProfessorID: "prof-bia", ProfessorName: "Beatriz", HourlyRate: decimal.NewFromInt(60), Sessions: 0},
	}}
	service, err := NewPayrollService(workloads, entries, fixedClock{now: time.Date(2026, time.March, 28, 18, 0, 0, 0, time.UTC)}, time.UTC)
	if err != nil {
		t.Fatalf("new payroll service: %v", err)
	}
	ctx := context.Background()

	lines, err := service.Payroll(ctx, march2026())
	if err != nil {
		t.Fatalf("payroll: %v", err)
	}
	if len(lines) != 2 || lines[0].ProfessorName != "Beatriz" || lines[1].ProfessorName != "Carlos" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if !lines[1].Total.Equal(decimal.NewFromInt(400)) || lines[1].Paid {
		t.Fatalf("unexpected Carlos line: %+v", lines[1])
	}

	entry, err := service.PayProfessor(ctx, march2026(), "prof-carlos")
	if err != nil {
		t.Fatalf("pay professor: %v", err)
	}
	if entry.Description != "Pagamento Professor - Carlos" || entry.RelatedPartyID != "prof-carlos" || !entry.IsPaid() || !entry.IsExpense() {
		t.Fatalf("unexpected payment entry: %+v", entry)
	}

	lines, err = service.Payroll(ctx, march2026())
	if err != nil {
		t.Fatalf("payroll after payment: %v", err)
	}
	if !lines[1].Paid {
		t.Fatalf("Carlos should be marked paid")
	}
	if _, err := service.PayProfessor(ctx, march2026(), "prof-carlos"); !errors.Is(err, finance.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if _, err := service.PayProfessor(ctx, march2026(), "prof-bia"); !errors.Is(err, finance.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := service.PayProfessor(ctx, march2026(), "prof-nobody"); !errors.Is(err, finance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
