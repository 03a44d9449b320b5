package application

import (
	"sort"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
)

// Reconciler projects unpaid recurring charges for a period. It never touches
// storage: callers pass templates, subscriptions and the realized entries they
// already loaded.
type Reconciler struct {
	loc *time.Location
}

// NewReconciler constructs a reconciler that reads timestamps in loc.
func NewReconciler(loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{loc: loc}
}

// ProjectExpenses returns one pending expense per active template and month of
// the period that no realized entry satisfies. Months before the template was
// created are skipped.
func (r *Reconciler) ProjectExpenses(period finance.Period, templates []finance.FixedExpense, entries []finance.Entry) []finance.Entry {
	var ghosts []finance.Entry
	for _, month := range period.Months() {
		for _, template := range templates {
			if !template.Active {
				continue
			}
			due := finance.ClampDueDate(month.Year(), month.Month(), template.DueDay)
			if !template.AppliesTo(due, r.loc) || r.expenseSatisfied(template, due, entries) {
				continue
			}
			ghosts = append(ghosts, finance.ProjectFixedExpense(template, due))
		}
	}
	sortByDueDate(ghosts)
	return ghosts
}

// ProjectIncome returns one pending tuition entry per subscription and month of
// the period without a linked income entry, starting at the enrollment month.
func (r *Reconciler) ProjectIncome(period finance.Period, subscriptions []finance.Subscription, entries []finance.Entry) []finance.Entry {
	var ghosts []finance.Entry
	for _, month := range period.Months() {
		for _, sub := range subscriptions {
			due := finance.ClampDueDate(month.Year(), month.Month(), sub.EffectiveDueDay())
			if !sub.AppliesTo(due, r.loc) || r.incomeSatisfied(sub, due, entries) {
				continue
			}
			ghosts = append(ghosts, finance.ProjectSubscription(sub, due))
		}
	}
	sortByDueDate(ghosts)
	return ghosts
}

// Merge combines realized entries with projections, newest due date first, the
// way the ledger lists them.
func (r *Reconciler) Merge(entries, ghosts []finance.Entry) []finance.Entry {
	out := make([]finance.Entry, 0, len(entries)+len(ghosts))
	out = append(out, ghosts...)
	out = append(out, entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return finance.EntryDay(out[i], r.loc).After(finance.EntryDay(out[j], r.loc))
	})
	return out
}

func (r *Reconciler) expenseSatisfied(template finance.FixedExpense, due time.Time, entries []finance.Entry) bool {
	for _, entry := range entries {
		if template.SatisfiedBy(entry, due, r.loc) {
			return true
		}
	}
	return false
}

func (r *Reconciler) incomeSatisfied(sub finance.Subscription, due time.Time, entries []finance.Entry) bool {
	for _, entry := range entries {
		if sub.SatisfiedBy(entry, due, r.loc) {
			return true
		}
	}
	return false
}

func sortByDueDate(entries []finance.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DueDate.Before(*entries[j].DueDate)
	})
}
