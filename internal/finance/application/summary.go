package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
)

const (
	payablesHorizonDays = 7
	mrrProjectionMonths = 3
	mrrProjectionDay    = 5
)

// Summary aggregates a period of the ledger.
type Summary struct {
	Period           finance.Period  `json:"period"`
	IncomePaid       decimal.Decimal `json:"income_paid"`
	IncomePending    decimal.Decimal `json:"income_pending"`
	ExpensePaid      decimal.Decimal `json:"expense_paid"`
	ExpensePending   decimal.Decimal `json:"expense_pending"`
	RealizedBalance  decimal.Decimal `json:"realized_balance"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
}

// CashFlowPoint is one day of the cash-flow chart.
type CashFlowPoint struct {
	Date           time.Time       `json:"date"`
	Label          string          `json:"label"`
	Income         decimal.Decimal `json:"income"`
	IncomePending  decimal.Decimal `json:"income_pending"`
	Expense        decimal.Decimal `json:"expense"`
	ExpensePending decimal.Decimal `json:"expense_pending"`
}

// Payables lists open expenses.
type Payables struct {
	Entries      []finance.Entry `json:"entries"`
	Total        decimal.Decimal `json:"total"`
	DueSoonTotal decimal.Decimal `json:"due_soon_total"`
}

// Receivables lists open income.
type Receivables struct {
	Entries []finance.Entry `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Summary totals the ledger of a period. Pending expenses from earlier periods
// count toward the projected balance.
func (s *LedgerService) Summary(ctx context.Context, period finance.Period) (*Summary, error) {
	view, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	backlog, err := s.entries.ListPending(ctx, finance.EntryTypeExpense)
	if err != nil {
		return nil, fmt.Errorf("ledger: list pending expenses: %w", err)
	}

	sum := &Summary{
		Period:         period,
		IncomePaid:     decimal.Zero,
		IncomePending:  decimal.Zero,
		ExpensePaid:    decimal.Zero,
		ExpensePending: decimal.Zero,
	}
	seen := make(map[string]struct{}, len(view.Entries))
	for _, entry := range view.Entries {
		seen[entry.ID] = struct{}{}
		addToSummary(sum, entry)
	}
	for _, entry := range backlog {
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		if finance.EntryDay(entry, s.loc).After(period.End) {
			continue
		}
		seen[entry.ID] = struct{}{}
		addToSummary(sum, entry)
	}
	sum.RealizedBalance = sum.IncomePaid.Sub(sum.ExpensePaid)
	sum.ProjectedBalance = sum.IncomePaid.Add(sum.IncomePending).Sub(sum.ExpensePaid).Sub(sum.ExpensePending)
	return sum, nil
}

func addToSummary(sum *Summary, entry finance.Entry) {
	switch {
	case entry.IsIncome() && entry.IsPaid():
		sum.IncomePaid = sum.IncomePaid.Add(entry.Amount)
	case entry.IsIncome():
		sum.IncomePending = sum.IncomePending.Add(entry.Amount)
	case entry.IsExpense() && entry.IsPaid():
		sum.ExpensePaid = sum.ExpensePaid.Add(entry.Amount)
	case entry.IsExpense():
		sum.ExpensePending = sum.ExpensePending.Add(entry.Amount)
	}
}

// CashFlow buckets the period by day and appends the recurring revenue
// expected on the 5th of each of the next three months.
func (s *LedgerService) CashFlow(ctx context.Context, period finance.Period) ([]CashFlowPoint, error) {
	view, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	buckets := make(map[time.Time]*CashFlowPoint)
	bucket := func(day time.Time) *CashFlowPoint {
		point, ok := buckets[day]
		if !ok {
			point = &CashFlowPoint{
				Date:           day,
				Label:          day.Format("02/01"),
				Income:         decimal.Zero,
				IncomePending:  decimal.Zero,
				Expense:        decimal.Zero,
				ExpensePending: decimal.Zero,
			}
			buckets[day] = point
		}
		return point
	}
	for _, entry := range view.Entries {
		point := bucket(finance.EntryDay(entry, s.loc))
		switch {
		case entry.IsIncome() && entry.IsPaid():
			point.Income = point.Income.Add(entry.Amount)
		case entry.IsIncome():
			point.IncomePending = point.IncomePending.Add(entry.Amount)
		case entry.IsExpense() && entry.IsPaid():
			point.Expense = point.Expense.Add(entry.Amount)
		default:
			point.ExpensePending = point.ExpensePending.Add(entry.Amount)
		}
	}

	mrr, err := s.MonthlyRecurringRevenue(ctx)
	if err != nil {
		return nil, err
	}
	if mrr.IsPositive() {
		month := finance.MonthStart(s.Today())
		for i := 1; i <= mrrProjectionMonths; i++ {
			day := month.AddDate(0, i, mrrProjectionDay-1)
			point := bucket(day)
			point.IncomePending = point.IncomePending.Add(mrr)
		}
	}

	points := make([]CashFlowPoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// MonthlyRecurringRevenue sums the plan prices of active subscriptions.
func (s *LedgerService) MonthlyRecurringRevenue(ctx context.Context) (decimal.Decimal, error) {
	subs, err := s.subs.ActiveSubscriptions(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger: list subscriptions: %w", err)
	}
	total := decimal.Zero
	for _, sub := range subs {
		total = total.Add(sub.Amount)
	}
	return total, nil
}

// Payables lists pending realized expenses together with this period's
// projected fixed expenses, earliest due first.
func (s *LedgerService) Payables(ctx context.Context, period finance.Period) (*Payables, error) {
	view, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	pending, err := s.entries.ListPending(ctx, finance.EntryTypeExpense)
	if err != nil {
		return nil, fmt.Errorf("ledger: list pending expenses: %w", err)
	}
	entries := append(append([]finance.Entry{}, pending...), view.ProjectedExpenses...)
	s.sortByEntryDay(entries)

	today := s.Today()
	horizon := today.AddDate(0, 0, payablesHorizonDays)
	out := &Payables{Entries: entries, Total: decimal.Zero, DueSoonTotal: decimal.Zero}
	for _, entry := range entries {
		out.Total = out.Total.Add(entry.Amount)
		day := finance.EntryDay(entry, s.loc)
		if !day.Before(today) && !day.After(horizon) {
			out.DueSoonTotal = out.DueSoonTotal.Add(entry.Amount)
		}
	}
	return out, nil
}

// Receivables lists unpaid income of the period, projected tuition included.
func (s *LedgerService) Receivables(ctx context.Context, period finance.Period) (*Receivables, error) {
	view, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	var entries []finance.Entry
	for _, entry := range view.Entries {
		if entry.IsIncome() && !entry.IsPaid() {
			entries = append(entries, entry)
		}
	}
	s.sortByEntryDay(entries)
	return &Receivables{Entries: entries, Total: finance.Sum(entries)}, nil
}

// ExpenseBreakdown totals realized expenses of the period by category.
func (s *LedgerService) ExpenseBreakdown(ctx context.Context, period finance.Period) ([]CategoryTotal, error) {
	view, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal)
	for _, entry := range view.Realized {
		if !entry.IsExpense() {
			continue
		}
		category := entry.Category
		if category == "" {
			category = "Outros"
		}
		totals[category] = totals[category].Add(entry.Amount)
	}
	out := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Equal(out[j].Total) {
			return out[i].Category < out[j].Category
		}
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out, nil
}

func (s *LedgerService) sortByEntryDay(entries []finance.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return finance.EntryDay(entries[i], s.loc).Before(finance.EntryDay(entries[j], s.loc))
	})
}
