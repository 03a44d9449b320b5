package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/academy/infrastructure/memory"
	"sensei-backoffice/internal/validation"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func sequentialIDs(prefix string) func() string {
	seq := 0
	return func() string {
		seq++
		return fmt.Sprintf("%s-%d", prefix, seq)
	}
}

func newRoster(t *testing.T) (*RosterService, *memory.StudentRepository) {
	t.Helper()
	students := memory.NewStudentRepository()
	service, err := NewRosterService(
		memory.NewPlanRepository(academy.Plan{ID: "plan-adulto", Name: "Adulto", Price: decimal.NewFromInt(150), WeeklyLimit: 3}),
		students,
		memory.NewProfessorRepository(),
		&memory.GymRepository{},
		WithClock(fixedClock{now: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)}),
		WithIDGenerator(sequentialIDs("id")),
	)
	if err != nil {
		t.Fatalf("new roster: %v", err)
	}
	return service, students
}

func TestRosterService_StudentLifecycle(t *testing.T) {
	service, _ := newRoster(t)
	ctx := context.Background()

	student, err := service.CreateStudent(ctx, StudentInput{
		FullName: "  Ana Lima ",
		Phone:    "(11) 99999-0001",
		PlanID:   "plan-adulto",
		DueDay:   10,
		Belt:     "Branca",
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	if student.ID != "id-1" || student.FullName != "Ana Lima" || student.Status != academy.StudentActive {
		t.Fatalf("unexpected student: %+v", student)
	}

	if _, err := service.CreateStudent(ctx, StudentInput{FullName: "Bruno", PlanID: "plan-x"}); !errors.Is(err, academy.ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	_, err = service.CreateStudent(ctx, StudentInput{FullName: "Caio", Email: "not-an-email", DueDay: 40})
	fields := validation.Fields(err)
	if fields["email"] == "" || fields["due_day"] == "" {
		t.Fatalf("expected email and due_day field errors, got %v", err)
	}

	updated, err := service.SetStudentStatus(ctx, student.ID, academy.StudentDebt)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != academy.StudentDebt {
		t.Fatalf("unexpected status %s", updated.Status)
	}
	if _, err := service.SetStudentStatus(ctx, student.ID, "frozen"); !errors.Is(err, academy.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	debtors, err := service.ListStudents(ctx, academy.StudentFilter{Status: academy.StudentDebt})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(debtors) != 1 || debtors[0].ID != student.ID {
		t.Fatalf("unexpected debtors: %+v", debtors)
	}
	if _, err := service.Student(ctx, "missing"); !errors.Is(err, academy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRosterService_PlanInUse(t *testing.T) {
	service, _ := newRoster(t)
	ctx := context.Background()

	if _, err := service.CreateStudent(ctx, StudentInput{FullName: "Ana", PlanID: "plan-adulto"}); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if err := service.DeletePlan(ctx, "plan-adulto"); !errors.Is(err, academy.ErrPlanInUse) {
		t.Fatalf("expected ErrPlanInUse, got %v", err)
	}

	plan, err := service.CreatePlan(ctx, PlanInput{Name: "Kids", Price: decimal.NewFromInt(120), WeeklyLimit: 2})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if err := service.DeletePlan(ctx, plan.ID); err != nil {
		t.Fatalf("delete unused plan: %v", err)
	}
	if _, err := service.CreatePlan(ctx, PlanInput{Name: "Grátis", Price: decimal.NewFromInt(-1)}); !errors.Is(err, academy.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestRosterService_GymName(t *testing.T) {
	service, _ := newRoster(t)
	ctx := context.Background()
	if name := service.GymName(ctx); name != DefaultGymName {
		t.Fatalf("expected default name, got %q", name)
	}
	if _, err := service.UpdateGymInfo(ctx, GymInput{Name: "Dojo Central", Phone: "1133334444"}); err != nil {
		t.Fatalf("update gym: %v", err)
	}
	if name := service.GymName(ctx); name != "Dojo Central" {
		t.Fatalf("unexpected name %q", name)
	}
	if _, err := service.UpdateGymInfo(ctx, GymInput{Name: "   "}); !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
