package finance

import "context"

// EntryRepository persists realized ledger entries.
type EntryRepository interface {
	ListByPeriod(ctx context.Context, period Period) ([]Entry, error)
	ListPending(ctx context.Context, entryType EntryType) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Create(ctx context.Context, entry *Entry) error
	Update(ctx context.Context, entry *Entry) error
	UpdateStatus(ctx context.Context, id string, status EntryStatus) error
	Delete(ctx context.Context, id string) error
}

// FixedExpenseRepository persists recurring expense templates.
type FixedExpenseRepository interface {
	List(ctx context.Context, activeOnly bool) ([]FixedExpense, error)
	Get(ctx context.Context, id string) (*FixedExpense, error)
	Save(ctx context.Context, template *FixedExpense) error
	SetActive(ctx context.Context, id string, active bool) error
}

// SubscriptionSource reads the recurring tuition of enrolled students.
type SubscriptionSource interface {
	ActiveSubscriptions(ctx context.Context) ([]Subscription, error)
	SubscriptionFor(ctx context.Context, studentID string) (*Subscription, error)
}

// WorkloadSource reads completed teaching sessions per professor.
type WorkloadSource interface {
	Workloads(ctx context.Context, period Period) ([]Workload, error)
}
