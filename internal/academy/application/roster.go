package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/validation"
)

// DefaultGymName is used until the academy saves its own name.
const DefaultGymName = "Sua Academia"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// PlanInput carries the editable fields of a plan.
type PlanInput struct {
	Name        string          `json:"name" validate:"required,notblank,max=80"`
	Price       decimal.Decimal `json:"price"`
	WeeklyLimit int             `json:"weekly_limit" validate:"min=0,max=14"`
}

// StudentInput carries the editable fields of a student.
type StudentInput struct {
	FullName string                `json:"full_name" validate:"required,notblank,max=120"`
	Phone    string                `json:"phone" validate:"max=30"`
	Email    string                `json:"email" validate:"omitempty,email,max=120"`
	PlanID   string                `json:"plan_id"`
	Status   academy.StudentStatus `json:"status" validate:"omitempty,oneof=active debt inactive"`
	DueDay   int                   `json:"due_day" validate:"omitempty,min=1,max=31"`
	Modality string                `json:"modality" validate:"max=60"`
	Belt     string                `json:"belt" validate:"max=40"`
	Degrees  int                   `json:"degrees" validate:"min=0,max=10"`
}

// ProfessorInput carries the editable fields of a professor.
type ProfessorInput struct {
	FullName   string          `json:"full_name" validate:"required,notblank,max=120"`
	Modality   string          `json:"modality" validate:"max=60"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// GymInput carries the academy identity.
type GymInput struct {
	Name  string `json:"name" validate:"required,notblank,max=120"`
	Phone string `json:"phone" validate:"max=30"`
}

// RosterService manages plans, students, professors and the gym identity.
type RosterService struct {
	plans      academy.PlanRepository
	students   academy.StudentRepository
	professors academy.ProfessorRepository
	gym        academy.GymRepository
	clock      Clock
	newID      func() string
}

// RosterOption configures a RosterService.
type RosterOption func(*RosterService)

// WithClock overrides the clock.
func WithClock(clock Clock) RosterOption {
	return func(s *RosterService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) RosterOption {
	return func(s *RosterService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewRosterService constructs a RosterService.
func NewRosterService(plans academy.PlanRepository, students academy.StudentRepository, professors academy.ProfessorRepository, gym academy.GymRepository, opts ...RosterOption) (*RosterService, error) {
	if plans == nil || students == nil || professors == nil || gym == nil {
		return nil, errors.New("roster service: nil repository")
	}
	s := &RosterService{
		plans:      plans,
		students:   students,
		professors: professors,
		gym:        gym,
		clock:      SystemClock{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ListPlans returns plans by price.
func (s *RosterService) ListPlans(ctx context.Context) ([]academy.Plan, error) {
	return s.plans.List(ctx)
}

// CreatePlan stores a new plan.
func (s *RosterService) CreatePlan(ctx context.Context, input PlanInput) (*academy.Plan, error) {
	if err := validatePlan(input); err != nil {
		return nil, err
	}
	plan := &academy.Plan{
		ID:          s.newID(),
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		WeeklyLimit: input.WeeklyLimit,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan overwrites a plan.
func (s *RosterService) UpdatePlan(ctx context.Context, id string, input PlanInput) (*academy.Plan, error) {
	if err := validatePlan(input); err != nil {
		return nil, err
	}
	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, academy.ErrNotFound
	}
	plan.Name = strings.TrimSpace(input.Name)
	plan.Price = input.Price
	plan.WeeklyLimit = input.WeeklyLimit
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes a plan nobody is enrolled in.
func (s *RosterService) DeletePlan(ctx context.Context, id string) error {
	enrolled, err := s.students.CountByPlan(ctx, id)
	if err != nil {
		return err
	}
	if enrolled > 0 {
		return fmt.Errorf("%w: %d students", academy.ErrPlanInUse, enrolled)
	}
	return s.plans.Delete(ctx, id)
}

func validatePlan(input PlanInput) error {
	if input.Price.IsNegative() {
		return academy.ErrInvalidPrice
	}
	return validation.Struct(input)
}

// ListStudents returns students matching filter, by name.
func (s *RosterService) ListStudents(ctx context.Context, filter academy.StudentFilter) ([]academy.Student, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, academy.ErrInvalidStatus
	}
	return s.students.List(ctx, filter)
}

// Student loads one student.
func (s *RosterService) Student(ctx context.Context, id string) (*academy.Student, error) {
	if id == "" {
		return nil, academy.ErrEmptyID
	}
	student, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, academy.ErrNotFound
	}
	return student, nil
}

// CreateStudent enrolls a student; status defaults to active.
func (s *RosterService) CreateStudent(ctx context.Context, input StudentInput) (*academy.Student, error) {
	if err := s.validateStudent(ctx, input); err != nil {
		return nil, err
	}
	student := &academy.Student{ID: s.newID(), CreatedAt: s.clock.Now()}
	applyStudentInput(student, input)
	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// UpdateStudent overwrites the editable fields of a student.
func (s *RosterService) UpdateStudent(ctx context.Context, id string, input StudentInput) (*academy.Student, error) {
	if err := s.validateStudent(ctx, input); err != nil {
		return nil, err
	}
	student, err := s.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentInput(student, input)
	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// SetStudentStatus moves a student between active, debt and inactive.
func (s *RosterService) SetStudentStatus(ctx context.Context, id string, status academy.StudentStatus) (*academy.Student, error) {
	if !status.Valid() {
		return nil, academy.ErrInvalidStatus
	}
	student, err := s.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	student.Status = status
	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *RosterService) validateStudent(ctx context.Context, input StudentInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if input.PlanID == "" {
		return nil
	}
	plan, err := s.plans.Get(ctx, input.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return academy.ErrUnknownPlan
	}
	return nil
}

func applyStudentInput(student *academy.Student, input StudentInput) {
	student.FullName = strings.TrimSpace(input.FullName)
	student.Phone = strings.TrimSpace(input.Phone)
	student.Email = strings.TrimSpace(input.Email)
	student.PlanID = input.PlanID
	student.Status = input.Status
	if student.Status == "" {
		student.Status = academy.StudentActive
	}
	student.DueDay = input.DueDay
	student.Modality = strings.TrimSpace(input.Modality)
	student.Belt = strings.TrimSpace(input.Belt)
	student.Degrees = input.Degrees
}

// ListProfessors returns professors by name.
func (s *RosterService) ListProfessors(ctx context.Context) ([]academy.Professor, error) {
	return s.professors.List(ctx)
}

// CreateProfessor registers a professor.
func (s *RosterService) CreateProfessor(ctx context.Context, input ProfessorInput) (*academy.Professor, error) {
	if err := validateProfessor(input); err != nil {
		return nil, err
	}
	professor := &academy.Professor{
		ID:         s.newID(),
		FullName:   strings.TrimSpace(input.FullName),
		Modality:   strings.TrimSpace(input.Modality),
		HourlyRate: input.HourlyRate,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.professors.Save(ctx, professor); err != nil {
		return nil, err
	}
	return professor, nil
}

// UpdateProfessor overwrites a professor.
func (s *RosterService) UpdateProfessor(ctx context.Context, id string, input ProfessorInput) (*academy.Professor, error) {
	if err := validateProfessor(input); err != nil {
		return nil, err
	}
	professor, err := s.professors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if professor == nil {
		return nil, academy.ErrNotFound
	}
	professor.FullName = strings.TrimSpace(input.FullName)
	professor.Modality = strings.TrimSpace(input.Modality)
	professor.HourlyRate = input.HourlyRate
	if err := s.professors.Save(ctx, professor); err != nil {
		return nil, err
	}
	return professor, nil
}

// DeleteProfessor removes a professor.
func (s *RosterService) DeleteProfessor(ctx context.Context, id string) error {
	return s.professors.Delete(ctx, id)
}

func validateProfessor(input ProfessorInput) error {
	if input.HourlyRate.IsNegative() {
		return academy.ErrInvalidPrice
	}
	return validation.Struct(input)
}

// GymInfo returns the saved identity or the default one.
func (s *RosterService) GymInfo(ctx context.Context) (*academy.GymInfo, error) {
	info, err := s.gym.Get(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return &academy.GymInfo{Name: DefaultGymName}, nil
	}
	return info, nil
}

// UpdateGymInfo saves the academy identity.
func (s *RosterService) UpdateGymInfo(ctx context.Context, input GymInput) (*academy.GymInfo, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	info := &academy.GymInfo{
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		UpdatedAt: s.clock.Now(),
	}
	if err := s.gym.Save(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

// GymName resolves the academy name for messages and receipts. Lookup
// failures fall back to the default name.
func (s *RosterService) GymName(ctx context.Context) string {
	info, err := s.GymInfo(ctx)
	if err != nil || info == nil || info.Name == "" {
		return DefaultGymName
	}
	return info.Name
}
