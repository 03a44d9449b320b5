package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	finance "sensei-backoffice/internal/finance/domain"
)

// PayrollService prices professor sessions and records their payment.
type PayrollService struct {
	workloads finance.WorkloadSource
	entries   finance.EntryRepository
	clock     Clock
	loc       *time.Location
	newID     func() string
}

// NewPayrollService constructs a PayrollService.
func NewPayrollService(workloads finance.WorkloadSource, entries finance.EntryRepository, clock Clock, loc *time.Location) (*PayrollService, error) {
	if workloads == nil {
		return nil, errors.New("payroll service: nil workload source")
	}
	if entries == nil {
		return nil, errors.New("payroll service: nil entry repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PayrollService{workloads: workloads, entries: entries, clock: clock, loc: loc, newID: uuid.NewString}, nil
}

// Payroll lists what each professor earned in the period and whether an
// expense linked to them was already recorded.
func (s *PayrollService) Payroll(ctx context.Context, period finance.Period) ([]finance.PayrollLine, error) {
	workloads, err := s.workloads.Workloads(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("payroll: workloads: %w", err)
	}
	entries, err := s.entries.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("payroll: list entries: %w", err)
	}
	paid := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsExpense() && entry.RelatedPartyID != "" {
			paid[entry.RelatedPartyID] = true
		}
	}
	lines := make([]finance.PayrollLine, 0, len(workloads))
	for _, w := range workloads {
		line := finance.NewPayrollLine(w)
		line.Paid = paid[w.ProfessorID]
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProfessorName < lines[j].ProfessorName })
	return lines, nil
}

// PayProfessor records the period's payment for one professor.
func (s *PayrollService) PayProfessor(ctx context.Context, period finance.Period, professorID string) (*finance.Entry, error) {
	if professorID == "" {
		return nil, finance.ErrEmptyID
	}
	lines, err := s.Payroll(ctx, period)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.ProfessorID != professorID {
			continue
		}
		if line.Paid {
			return nil, finance.ErrAlreadyPaid
		}
		if !line.Total.IsPositive() {
			return nil, finance.ErrInvalidAmount
		}
		now := s.clock.Now()
		due := finance.CivilDate(now, s.loc)
		if !period.Contains(due) {
			due = period.End
		}
		entry := &finance.Entry{
			ID:             s.newID(),
			Type:           finance.EntryTypeExpense,
			Category:       finance.CategoryPayroll,
			Description:    finance.PayrollDescription(line.ProfessorName),
			Amount:         line.Total,
			Status:         finance.EntryStatusPaid,
			DueDate:        &due,
			CreatedAt:      now,
			RelatedPartyID: line.ProfessorID,
		}
		if err := s.entries.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("payroll: record payment: %w", err)
		}
		return entry, nil
	}
	return nil, finance.ErrNotFound
}
