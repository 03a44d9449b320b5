package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	finance "sensei-backoffice/internal/finance/domain"
)

// EntryRepository is an in-memory ledger.
type EntryRepository struct {
	mu   sync.RWMutex
	loc  *time.Location
	data map[string]finance.Entry
}

// NewEntryRepository constructs a repository that places timestamps in loc.
func NewEntryRepository(loc *time.Location) *EntryRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &EntryRepository{loc: loc, data: make(map[string]finance.Entry)}
}

// ListByPeriod returns entries whose effective day falls in the period.
func (r *EntryRepository) ListByPeriod(_ context.Context, period finance.Period) ([]finance.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []finance.Entry
	for _, entry := range r.data {
		if period.Contains(finance.EntryDay(entry, r.loc)) {
			out = append(out, entry.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// ListPending returns unpaid entries of a type regardless of date.
func (r *EntryRepository) ListPending(_ context.Context, entryType finance.EntryType) ([]finance.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []finance.Entry
	for _, entry := range r.data {
		if entry.Type == entryType && !entry.IsPaid() {
			out = append(out, entry.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// Get loads an entry or returns nil when missing.
func (r *EntryRepository) Get(_ context.Context, id string) (*finance.Entry, error) {
	r.mu.RLock()
	entry, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	clone := entry.Clone()
	return &clone, nil
}

// Create inserts an entry.
func (r *EntryRepository) Create(_ context.Context, entry *finance.Entry) error {
	if entry == nil || entry.ID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	r.data[entry.ID] = entry.Clone()
	r.mu.Unlock()
	return nil
}

// Update overwrites an existing entry.
func (r *EntryRepository) Update(_ context.Context, entry *finance.Entry) error {
	if entry == nil || entry.ID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[entry.ID]; !ok {
		return finance.ErrNotFound
	}
	r.data[entry.ID] = entry.Clone()
	return nil
}

// UpdateStatus sets the status of an entry.
func (r *EntryRepository) UpdateStatus(_ context.Context, id string, status finance.EntryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.data[id]
	if !ok {
		return finance.ErrNotFound
	}
	entry.Status = status
	r.data[id] = entry
	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return finance.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// All returns every stored entry, oldest first.
func (r *EntryRepository) All() []finance.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]finance.Entry, 0, len(r.data))
	for _, entry := range r.data {
		out = append(out, entry.Clone())
	}
	sortByCreated(out)
	return out
}

func sortByCreated(entries []finance.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// FixedExpenseRepository is an in-memory template store.
type FixedExpenseRepository struct {
	mu   sync.RWMutex
	data map[string]finance.FixedExpense
}

// NewFixedExpenseRepository constructs a repository seeded with templates.
func NewFixedExpenseRepository(seed ...finance.FixedExpense) *FixedExpenseRepository {
	repo := &FixedExpenseRepository{data: make(map[string]finance.FixedExpense)}
	for _, template := range seed {
		repo.data[template.ID] = template
	}
	return repo
}

// List returns templates ordered by due day.
func (r *FixedExpenseRepository) List(_ context.Context, activeOnly bool) ([]finance.FixedExpense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]finance.FixedExpense, 0, len(r.data))
	for _, template := range r.data {
		if activeOnly && !template.Active {
			continue
		}
		out = append(out, template)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDay == out[j].DueDay {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDay < out[j].DueDay
	})
	return out, nil
}

// Get loads a template or returns nil when missing.
func (r *FixedExpenseRepository) Get(_ context.Context, id string) (*finance.FixedExpense, error) {
	r.mu.RLock()
	template, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &template, nil
}

// Save upserts a template.
func (r *FixedExpenseRepository) Save(_ context.Context, template *finance.FixedExpense) error {
	if template == nil || template.ID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	r.data[template.ID] = *template
	r.mu.Unlock()
	return nil
}

// SetActive toggles a template.
func (r *FixedExpenseRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.data[id]
	if !ok {
		return finance.ErrNotFound
	}
	template.Active = active
	r.data[id] = template
	return nil
}

// SubscriptionSource serves a fixed list of subscriptions.
type SubscriptionSource struct {
	Subscriptions []finance.Subscription
}

// ActiveSubscriptions returns the configured list.
func (s *SubscriptionSource) ActiveSubscriptions(_ context.Context) ([]finance.Subscription, error) {
	return append([]finance.Subscription(nil), s.Subscriptions...), nil
}

// SubscriptionFor finds a subscription by student.
func (s *SubscriptionSource) SubscriptionFor(_ context.Context, studentID string) (*finance.Subscription, error) {
	for _, sub := range s.Subscriptions {
		if sub.StudentID == studentID {
			found := sub
			return &found, nil
		}
	}
	return nil, nil
}

// WorkloadSource serves a fixed list of workloads.
type WorkloadSource struct {
	Items []finance.Workload
}

// Workloads returns the configured list.
func (s *WorkloadSource) Workloads(_ context.Context, _ finance.Period) ([]finance.Workload, error) {
	return append([]finance.Workload(nil), s.Items...), nil
}
