package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/validation"
)

// FixedExpenseInput carries the editable fields of a template.
type FixedExpenseInput struct {
	Category    string          `json:"category" validate:"required,max=120"`
	Description string          `json:"description" validate:"required,max=240"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"due_day" validate:"min=1,max=31"`
}

// FixedExpenseService manages recurring expense templates.
type FixedExpenseService struct {
	repo  finance.FixedExpenseRepository
	clock Clock
}

// NewFixedExpenseService constructs a FixedExpenseService.
func NewFixedExpenseService(repo finance.FixedExpenseRepository, clock Clock) (*FixedExpenseService, error) {
	if repo == nil {
		return nil, errors.New("fixed expense service: nil repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &FixedExpenseService{repo: repo, clock: clock}, nil
}

// List returns templates, optionally only active ones.
func (s *FixedExpenseService) List(ctx context.Context, activeOnly bool) ([]finance.FixedExpense, error) {
	return s.repo.List(ctx, activeOnly)
}

// Create stores a new active template.
func (s *FixedExpenseService) Create(ctx context.Context, input FixedExpenseInput) (*finance.FixedExpense, error) {
	if err := validateFixedExpense(input); err != nil {
		return nil, err
	}
	template := &finance.FixedExpense{
		ID:          uuid.NewString(),
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		DueDay:      input.DueDay,
		Active:      true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Update edits an existing template.
func (s *FixedExpenseService) Update(ctx context.Context, id string, input FixedExpenseInput) (*finance.FixedExpense, error) {
	if err := validateFixedExpense(input); err != nil {
		return nil, err
	}
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, finance.ErrNotFound
	}
	template.Category = strings.TrimSpace(input.Category)
	template.Description = strings.TrimSpace(input.Description)
	template.Amount = input.Amount
	template.DueDay = input.DueDay
	if err := s.repo.Save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// SetActive enables or disables a template. Templates are never deleted.
func (s *FixedExpenseService) SetActive(ctx context.Context, id string, active bool) error {
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if template == nil {
		return finance.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, active)
}

func validateFixedExpense(input FixedExpenseInput) error {
	if strings.TrimSpace(input.Category) == "" {
		return finance.ErrEmptyCategory
	}
	if !input.Amount.IsPositive() {
		return finance.ErrInvalidAmount
	}
	return validation.Struct(input)
}
