package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	financeapp "sensei-backoffice/internal/finance/application"
	finance "sensei-backoffice/internal/finance/domain"
)

// LedgerReader is the slice of the finance ledger billing needs.
type LedgerReader interface {
	Ledger(ctx context.Context, period finance.Period) (*financeapp.LedgerView, error)
	Today() time.Time
}

// Service lists today's billing candidates and sends batches.
type Service struct {
	ledger         LedgerReader
	selector       *Selector
	dispatcher     *Dispatcher
	lookbackMonths int
}

// NewService constructs a Service. dispatcher may be nil when no gateway is
// configured; listing still works.
func NewService(ledger LedgerReader, selector *Selector, dispatcher *Dispatcher, lookbackMonths int) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("billing service: nil ledger")
	}
	if selector == nil {
		return nil, errors.New("billing service: nil selector")
	}
	if lookbackMonths < 0 {
		lookbackMonths = 0
	}
	return &Service{ledger: ledger, selector: selector, dispatcher: dispatcher, lookbackMonths: lookbackMonths}, nil
}

// Window is the ledger span scanned for receivables: from the start of the
// lookback month through the end of tomorrow's month.
func (s *Service) Window(today time.Time) finance.Period {
	start := finance.MonthStart(today).AddDate(0, -s.lookbackMonths, 0)
	end := finance.MonthEnd(today.AddDate(0, 0, 1))
	return finance.Period{Start: start, End: end}
}

// Candidates returns today's reminders, all selected and pending.
func (s *Service) Candidates(ctx context.Context) ([]billing.Candidate, error) {
	today := s.ledger.Today()
	view, err := s.ledger.Ledger(ctx, s.Window(today))
	if err != nil {
		return nil, fmt.Errorf("billing: load ledger: %w", err)
	}
	return s.selector.Select(view.Entries, today)
}

// Send recomputes today's candidates and dispatches those whose entry id is
// in entryIDs. An empty entryIDs sends every candidate.
func (s *Service) Send(ctx context.Context, entryIDs []string) (billing.BatchResult, error) {
	if s.dispatcher == nil {
		return billing.BatchResult{}, billing.ErrGatewayNotConfigured
	}
	candidates, err := s.Candidates(ctx)
	if err != nil {
		return billing.BatchResult{}, err
	}
	if len(entryIDs) > 0 {
		wanted := make(map[string]struct{}, len(entryIDs))
		for _, id := range entryIDs {
			wanted[id] = struct{}{}
		}
		for i := range candidates {
			_, ok := wanted[candidates[i].EntryID]
			candidates[i].Selected = ok
		}
	}
	ready := 0
	for _, c := range candidates {
		if c.Ready() {
			ready++
		}
	}
	if ready == 0 {
		return billing.BatchResult{Candidates: candidates}, billing.ErrEmptyBatch
	}
	return s.dispatcher.Dispatch(ctx, candidates), nil
}
