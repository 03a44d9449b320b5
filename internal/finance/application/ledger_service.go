package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/observability/metrics"
	"sensei-backoffice/internal/validation"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// LedgerView is a period of the ledger with projections folded in.
type LedgerView struct {
	Period            finance.Period  `json:"period"`
	Entries           []finance.Entry `json:"entries"`
	Realized          []finance.Entry `json:"-"`
	ProjectedExpenses []finance.Entry `json:"-"`
	ProjectedIncome   []finance.Entry `json:"-"`
}

// EntryInput carries operator-provided fields of a ledger entry.
type EntryInput struct {
	Type           finance.EntryType   `json:"type" validate:"required,oneof=income expense"`
	Category       string              `json:"category" validate:"required,max=120"`
	Description    string              `json:"description" validate:"max=240"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         finance.EntryStatus `json:"status" validate:"omitempty,oneof=paid pending overdue"`
	DueDate        *time.Time          `json:"due_date"`
	RelatedPartyID string              `json:"related_party_id"`
}

// LedgerService handles ledger reads and writes.
type LedgerService struct {
	entries    finance.EntryRepository
	templates  finance.FixedExpenseRepository
	subs       finance.SubscriptionSource
	reconciler *Reconciler
	clock      Clock
	loc        *time.Location
	newID      func() string
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithLocation sets the gym's time zone.
func WithLocation(loc *time.Location) LedgerOption {
	return func(s *LedgerService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) LedgerOption {
	return func(s *LedgerService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides id generation for new entries.
func WithIDGenerator(fn func() string) LedgerOption {
	return func(s *LedgerService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(entries finance.EntryRepository, templates finance.FixedExpenseRepository, subs finance.SubscriptionSource, opts ...LedgerOption) (*LedgerService, error) {
	if entries == nil {
		return nil, errors.New("ledger service: nil entry repo")
	}
	if templates == nil {
		return nil, errors.New("ledger service: nil fixed expense repo")
	}
	if subs == nil {
		return nil, errors.New("ledger service: nil subscription source")
	}
	s := &LedgerService{
		entries:   entries,
		templates: templates,
		subs:      subs,
		clock:     SystemClock{},
		loc:       time.UTC,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.reconciler = NewReconciler(s.loc)
	return s, nil
}

// Today returns the current civil date in the gym's time zone.
func (s *LedgerService) Today() time.Time {
	return finance.CivilDate(s.clock.Now(), s.loc)
}

// Location returns the gym's time zone.
func (s *LedgerService) Location() *time.Location {
	return s.loc
}

// ResolvePeriod expands a preset relative to today.
func (s *LedgerService) ResolvePeriod(preset finance.Preset) (finance.Period, error) {
	return finance.ResolvePeriod(preset, s.Today())
}

// Ledger loads realized entries of a period and projects the recurring
// charges they do not cover.
func (s *LedgerService) Ledger(ctx context.Context, period finance.Period) (*LedgerView, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	ghosts := 0
	defer func() {
		metrics.ObserveReconcile(result, ghosts, time.Since(start))
	}()

	// Whole months are loaded so entries paid before a partial period still
	// satisfy their template.
	span := finance.Period{Start: finance.MonthStart(period.Start), End: finance.MonthEnd(period.End)}
	loaded, err := s.entries.ListByPeriod(ctx, span)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("ledger: list entries: %w", err)
	}
	templates, err := s.templates.List(ctx, true)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("ledger: list fixed expenses: %w", err)
	}
	subs, err := s.subs.ActiveSubscriptions(ctx)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("ledger: list subscriptions: %w", err)
	}

	view := &LedgerView{Period: period}
	for _, entry := range loaded {
		if period.Contains(finance.EntryDay(entry, s.loc)) {
			view.Realized = append(view.Realized, entry)
		}
	}
	view.ProjectedExpenses = withinPeriod(period, s.reconciler.ProjectExpenses(span, templates, loaded))
	view.ProjectedIncome = withinPeriod(period, s.reconciler.ProjectIncome(span, subs, loaded))

	projected := append(append([]finance.Entry{}, view.ProjectedExpenses...), view.ProjectedIncome...)
	view.Entries = s.reconciler.Merge(view.Realized, projected)
	ghosts = len(projected)
	return view, nil
}

// Entry loads one realized entry.
func (s *LedgerService) Entry(ctx context.Context, id string) (*finance.Entry, error) {
	if id == "" {
		return nil, finance.ErrEmptyID
	}
	if finance.IsGhostID(id) {
		return nil, finance.ErrProjectedReadOnly
	}
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, finance.ErrNotFound
	}
	return entry, nil
}

// Create validates and stores a new realized entry.
func (s *LedgerService) Create(ctx context.Context, input EntryInput) (*finance.Entry, error) {
	entry, err := s.buildEntry(input)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("ledger: create entry: %w", err)
	}
	return entry, nil
}

// Update replaces operator-editable fields of a realized entry.
func (s *LedgerService) Update(ctx context.Context, id string, input EntryInput) (*finance.Entry, error) {
	if finance.IsGhostID(id) {
		return nil, finance.ErrProjectedReadOnly
	}
	existing, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, finance.ErrNotFound
	}
	updated, err := s.buildEntry(input)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.FixedExpenseID = existing.FixedExpenseID
	if err := s.entries.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("ledger: update entry: %w", err)
	}
	return updated, nil
}

// ToggleStatus flips a realized entry between paid and pending.
func (s *LedgerService) ToggleStatus(ctx context.Context, id string) (*finance.Entry, error) {
	if finance.IsGhostID(id) {
		return nil, finance.ErrProjectedReadOnly
	}
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, finance.ErrNotFound
	}
	next := finance.EntryStatusPaid
	if entry.IsPaid() {
		next = finance.EntryStatusPending
	}
	if err := s.entries.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("ledger: update status: %w", err)
	}
	entry.Status = next
	return entry, nil
}

// Delete removes a realized entry.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return finance.ErrEmptyID
	}
	if finance.IsGhostID(id) {
		return finance.ErrProjectedReadOnly
	}
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return finance.ErrNotFound
	}
	return s.entries.Delete(ctx, id)
}

// Settle converts a projected entry into a paid realized entry linked to its
// template, so later reconciliations no longer project it.
func (s *LedgerService) Settle(ctx context.Context, ghostID string) (*finance.Entry, error) {
	ref, err := finance.ParseGhostID(ghostID)
	if err != nil {
		return nil, err
	}
	month := finance.Period{Start: finance.MonthStart(ref.DueDate), End: finance.MonthEnd(ref.DueDate)}
	existing, err := s.entries.ListByPeriod(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("ledger: list entries: %w", err)
	}

	due := ref.DueDate
	entry := &finance.Entry{
		ID:        s.newID(),
		Status:    finance.EntryStatusPaid,
		DueDate:   &due,
		CreatedAt: s.clock.Now(),
	}
	switch ref.Kind {
	case finance.GhostFixedExpense:
		template, err := s.templates.Get(ctx, ref.TemplateID)
		if err != nil {
			return nil, err
		}
		if template == nil || !due.Equal(finance.ClampDueDate(due.Year(), due.Month(), template.DueDay)) {
			return nil, finance.ErrGhostNotFound
		}
		for _, candidate := range existing {
			if template.SatisfiedBy(candidate, due, s.loc) {
				return nil, finance.ErrAlreadyPaid
			}
		}
		entry.Type = finance.EntryTypeExpense
		entry.Category = template.Category
		entry.Description = template.Description
		entry.Amount = template.Amount
		entry.FixedExpenseID = template.ID
	case finance.GhostSubscription:
		sub, err := s.subs.SubscriptionFor(ctx, ref.TemplateID)
		if err != nil {
			return nil, err
		}
		if sub == nil || !due.Equal(finance.ClampDueDate(due.Year(), due.Month(), sub.EffectiveDueDay())) {
			return nil, finance.ErrGhostNotFound
		}
		for _, candidate := range existing {
			if sub.SatisfiedBy(candidate, due, s.loc) {
				return nil, finance.ErrAlreadyPaid
			}
		}
		entry.Type = finance.EntryTypeIncome
		entry.Category = finance.CategoryTuition
		entry.Description = sub.StudentName
		entry.Amount = sub.Amount
		entry.RelatedPartyID = sub.StudentID
		entry.Phone = sub.Phone
	default:
		return nil, finance.ErrInvalidGhostID
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("ledger: settle %s: %w", ghostID, err)
	}
	return entry, nil
}

// ReceiveTuition records this month's tuition payment for a student.
func (s *LedgerService) ReceiveTuition(ctx context.Context, studentID string) (*finance.Entry, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, finance.ErrEmptyID
	}
	sub, err := s.subs.SubscriptionFor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, finance.ErrGhostNotFound
	}
	today := s.Today()
	due := finance.ClampDueDate(today.Year(), today.Month(), sub.EffectiveDueDay())
	return s.Settle(ctx, finance.SubscriptionGhostID(studentID, due))
}

func (s *LedgerService) buildEntry(input EntryInput) (*finance.Entry, error) {
	if !finance.ValidEntryType(input.Type) {
		return nil, finance.ErrInvalidEntryType
	}
	if input.Status == "" {
		input.Status = finance.EntryStatusPending
	}
	if !finance.ValidEntryStatus(input.Status) {
		return nil, finance.ErrInvalidStatus
	}
	if !input.Amount.IsPositive() {
		return nil, finance.ErrInvalidAmount
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, finance.ErrEmptyCategory
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	var due *time.Time
	if input.DueDate != nil && !input.DueDate.IsZero() {
		d := finance.Date(input.DueDate.Year(), input.DueDate.Month(), input.DueDate.Day())
		due = &d
	}
	return &finance.Entry{
		ID:             s.newID(),
		Type:           input.Type,
		Category:       strings.TrimSpace(input.Category),
		Description:    strings.TrimSpace(input.Description),
		Amount:         input.Amount,
		Status:         input.Status,
		DueDate:        due,
		CreatedAt:      s.clock.Now(),
		RelatedPartyID: input.RelatedPartyID,
	}, nil
}

func withinPeriod(period finance.Period, entries []finance.Entry) []finance.Entry {
	out := entries[:0]
	for _, entry := range entries {
		if entry.DueDate != nil && period.Contains(*entry.DueDate) {
			out = append(out, entry)
		}
	}
	return out
}
