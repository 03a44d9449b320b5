package application

import (
	"context"
	"errors"
	"testing"
	"time"

	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/academy/infrastructure/memory"
)

func presentMarks(studentID string, from time.Time, count int) []academy.Attendance {
	out := make([]academy.Attendance, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, academy.Attendance{
			StudentID: studentID,
			ClassID:   "class-bjj",
			Date:      from.AddDate(0, 0, i),
			Present:   true,
		})
	}
	return out
}

func TestGraduationService_EligibilityAndPromote(t *testing.T) {
	enrolled := time.Date(2025, time.June, 1, 14, 0, 0, 0, time.UTC)
	students := memory.NewStudentRepository(
		academy.Student{ID: "stu-ana", FullName: "Ana", Status: academy.StudentActive, Belt: "Branca", Degrees: 1, CreatedAt: enrolled},
		academy.Student{ID: "stu-bruno", FullName: "Bruno", Status: academy.StudentActive, Belt: "Azul", Degrees: 4, CreatedAt: enrolled},
		academy.Student{ID: "stu-caio", FullName: "Caio", Status: academy.StudentInactive, Belt: "Branca", CreatedAt: enrolled},
	)
	classes := memory.NewClassRepository()
	var marks []academy.Attendance
	marks = append(marks, presentMarks("stu-ana", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), 30)...)
	marks = append(marks, presentMarks("stu-bruno", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), 40)...)
	marks = append(marks, academy.Attendance{StudentID: "stu-bruno", ClassID: "class-bjj", Date: time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)})
	attendance := memory.NewAttendanceRepository(classes, marks...)
	graduations := memory.NewGraduationRepository(students)

	service, err := NewGraduationService(students, attendance, graduations, fixedClock{now: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)}, time.UTC)
	if err != nil {
		t.Fatalf("new graduation service: %v", err)
	}
	ctx := context.Background()

	items, err := service.Eligibility(ctx)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("inactive students are not evaluated: %+v", items)
	}
	if items[0].Student.ID != "stu-ana" || !items[0].Eligible || items[0].NextMilestone != "2º Grau" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Student.ID != "stu-bruno" || items[1].Eligible || items[1].Progress != 80 || items[1].NextMilestone != "Troca de Faixa" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}

	graduation, err := service.Promote(ctx, PromoteInput{StudentID: "stu-ana", Belt: "Branca", Degrees: 2})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !graduation.PromotionDate.Equal(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected promotion date %s", graduation.PromotionDate)
	}
	student, err := students.Get(ctx, "stu-ana")
	if err != nil || student.Degrees != 2 {
		t.Fatalf("student not promoted: %+v %v", student, err)
	}

	after, err := service.StudentEligibility(ctx, "stu-ana")
	if err != nil {
		t.Fatalf("student eligibility: %v", err)
	}
	if after.ClassesAttended != 0 || after.Eligible || after.NextMilestone != "3º Grau" {
		t.Fatalf("counting restarts at the promotion: %+v", after)
	}

	history, err := service.History(ctx, "stu-ana")
	if err != nil || len(history) != 1 {
		t.Fatalf("unexpected history: %+v %v", history, err)
	}

	if _, err := service.Promote(ctx, PromoteInput{StudentID: "stu-ghost", Belt: "Azul"}); !errors.Is(err, academy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.Promote(ctx, PromoteInput{StudentID: "stu-ana", Belt: "Azul", Degrees: -1}); !errors.Is(err, academy.ErrInvalidDegrees) {
		t.Fatalf("expected ErrInvalidDegrees, got %v", err)
	}
}
