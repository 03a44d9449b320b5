package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/validation"
)

// PromoteInput describes a promotion.
type PromoteInput struct {
	StudentID     string    `json:"student_id" validate:"required"`
	Belt          string    `json:"belt" validate:"required,notblank,max=40"`
	Degrees       int       `json:"degrees"`
	PromotionDate time.Time `json:"promotion_date"`
	ProfessorID   string    `json:"professor_id"`
	Notes         string    `json:"notes" validate:"max=500"`
}

// GraduationService tracks progress toward promotions.
type GraduationService struct {
	students    academy.StudentRepository
	attendance  academy.AttendanceRepository
	graduations academy.GraduationRepository
	clock       Clock
	loc         *time.Location
	newID       func() string
}

// NewGraduationService constructs a GraduationService.
func NewGraduationService(students academy.StudentRepository, attendance academy.AttendanceRepository, graduations academy.GraduationRepository, clock Clock, loc *time.Location) (*GraduationService, error) {
	if students == nil || attendance == nil || graduations == nil {
		return nil, errors.New("graduation service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GraduationService{
		students:    students,
		attendance:  attendance,
		graduations: graduations,
		clock:       clock,
		loc:         loc,
		newID:       uuid.NewString,
	}, nil
}

// Eligibility evaluates every active student. Present classes are counted
// from the last promotion, or from enrollment when there is none.
func (s *GraduationService) Eligibility(ctx context.Context) ([]academy.Eligibility, error) {
	students, err := s.students.List(ctx, academy.StudentFilter{Status: academy.StudentActive})
	if err != nil {
		return nil, err
	}
	out := make([]academy.Eligibility, 0, len(students))
	for _, student := range students {
		item, err := s.evaluate(ctx, student)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	academy.SortEligibility(out)
	return out, nil
}

// StudentEligibility evaluates one student regardless of status.
func (s *GraduationService) StudentEligibility(ctx context.Context, studentID string) (*academy.Eligibility, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, academy.ErrNotFound
	}
	item, err := s.evaluate(ctx, *student)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GraduationService) evaluate(ctx context.Context, student academy.Student) (academy.Eligibility, error) {
	since := civilDay(student.CreatedAt.In(s.loc))
	last, err := s.graduations.Last(ctx, student.ID)
	if err != nil {
		return academy.Eligibility{}, fmt.Errorf("graduation: last promotion of %s: %w", student.ID, err)
	}
	if last != nil {
		since = civilDay(last.PromotionDate)
	}
	attended, err := s.attendance.CountPresentSince(ctx, student.ID, since)
	if err != nil {
		return academy.Eligibility{}, fmt.Errorf("graduation: attendance of %s: %w", student.ID, err)
	}
	return academy.Evaluate(student, attended, since), nil
}

// History lists a student's promotions, newest first.
func (s *GraduationService) History(ctx context.Context, studentID string) ([]academy.Graduation, error) {
	if studentID == "" {
		return nil, academy.ErrEmptyID
	}
	return s.graduations.ListByStudent(ctx, studentID)
}

// Promote records a graduation and updates the student's belt and degrees.
func (s *GraduationService) Promote(ctx context.Context, input PromoteInput) (*academy.Graduation, error) {
	if input.Degrees < 0 || input.Degrees > academy.MaxBlackBeltDegrees {
		return nil, academy.ErrInvalidDegrees
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	student, err := s.students.Get(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, academy.ErrNotFound
	}
	date := civilDay(s.clock.Now().In(s.loc))
	if !input.PromotionDate.IsZero() {
		date = civilDay(input.PromotionDate)
	}
	graduation := &academy.Graduation{
		ID:            s.newID(),
		StudentID:     student.ID,
		Belt:          strings.TrimSpace(input.Belt),
		Degrees:       input.Degrees,
		PromotionDate: date,
		ProfessorID:   input.ProfessorID,
		Notes:         strings.TrimSpace(input.Notes),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.graduations.Promote(ctx, graduation); err != nil {
		return nil, err
	}
	return graduation, nil
}
