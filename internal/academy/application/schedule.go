package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/validation"
)

// ClassInput carries the editable fields of a class.
type ClassInput struct {
	Name         string   `json:"name" validate:"required,notblank,max=80"`
	ScheduleTime string   `json:"schedule_time" validate:"required"`
	ProfessorID  string   `json:"professor_id"`
	DaysOfWeek   []string `json:"days_of_week" validate:"max=7"`
}

// AttendanceSheetInput is one saved roll call. Students missing from Present
// are recorded absent.
type AttendanceSheetInput struct {
	ClassID          string          `json:"class_id" validate:"required"`
	Date             time.Time       `json:"date"`
	ProfessorID      string          `json:"professor_id"`
	ProfessorPresent bool            `json:"professor_present"`
	Present          map[string]bool `json:"present"`
	Notes            string          `json:"notes" validate:"max=500"`
}

// AttendanceSheet is the roll call of a class on a date.
type AttendanceSheet struct {
	Class    academy.Class        `json:"class"`
	Date     time.Time            `json:"date"`
	Students []academy.Student    `json:"students"`
	Marks    []academy.Attendance `json:"marks"`
}

// ScheduleService manages classes, sessions and attendance.
type ScheduleService struct {
	classes    academy.ClassRepository
	attendance academy.AttendanceRepository
	students   academy.StudentRepository
	professors academy.ProfessorRepository
	clock      Clock
	loc        *time.Location
	newID      func() string
}

// NewScheduleService constructs a ScheduleService. Dates are civil days in loc.
func NewScheduleService(classes academy.ClassRepository, attendance academy.AttendanceRepository, students academy.StudentRepository, professors academy.ProfessorRepository, clock Clock, loc *time.Location) (*ScheduleService, error) {
	if classes == nil || attendance == nil || students == nil || professors == nil {
		return nil, errors.New("schedule service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleService{
		classes:    classes,
		attendance: attendance,
		students:   students,
		professors: professors,
		clock:      clock,
		loc:        loc,
		newID:      uuid.NewString,
	}, nil
}

// Today is the current civil day.
func (s *ScheduleService) Today() time.Time {
	return civilDay(s.clock.Now().In(s.loc))
}

// ListClasses returns the weekly schedule by start time.
func (s *ScheduleService) ListClasses(ctx context.Context) ([]academy.Class, error) {
	return s.classes.ListClasses(ctx)
}

// TodaysClasses returns the classes held on the current weekday.
func (s *ScheduleService) TodaysClasses(ctx context.Context) ([]academy.Class, error) {
	return s.ClassesOn(ctx, s.Today())
}

// ClassesOn returns the classes held on the weekday of day.
func (s *ScheduleService) ClassesOn(ctx context.Context, day time.Time) ([]academy.Class, error) {
	classes, err := s.classes.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	var out []academy.Class
	for _, class := range classes {
		if class.MeetsOn(day) {
			out = append(out, class)
		}
	}
	return out, nil
}

// CreateClass adds a class to the schedule.
func (s *ScheduleService) CreateClass(ctx context.Context, input ClassInput) (*academy.Class, error) {
	days, err := s.validateClass(ctx, input)
	if err != nil {
		return nil, err
	}
	class := &academy.Class{
		ID:           s.newID(),
		Name:         strings.TrimSpace(input.Name),
		ScheduleTime: input.ScheduleTime,
		ProfessorID:  input.ProfessorID,
		DaysOfWeek:   days,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.classes.SaveClass(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// UpdateClass overwrites a class.
func (s *ScheduleService) UpdateClass(ctx context.Context, id string, input ClassInput) (*academy.Class, error) {
	days, err := s.validateClass(ctx, input)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, academy.ErrNotFound
	}
	class.Name = strings.TrimSpace(input.Name)
	class.ScheduleTime = input.ScheduleTime
	class.ProfessorID = input.ProfessorID
	class.DaysOfWeek = days
	if err := s.classes.SaveClass(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// DeleteClass removes a class from the schedule.
func (s *ScheduleService) DeleteClass(ctx context.Context, id string) error {
	return s.classes.DeleteClass(ctx, id)
}

func (s *ScheduleService) validateClass(ctx context.Context, input ClassInput) ([]string, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := time.Parse(academy.ScheduleLayout, input.ScheduleTime); err != nil {
		return nil, academy.ErrInvalidSchedule
	}
	days := make([]string, 0, len(input.DaysOfWeek))
	seen := make(map[string]bool, len(input.DaysOfWeek))
	for _, day := range input.DaysOfWeek {
		norm, ok := academy.NormalizeWeekday(day)
		if !ok {
			return nil, academy.ErrInvalidWeekday
		}
		if !seen[norm] {
			seen[norm] = true
			days = append(days, norm)
		}
	}
	if input.ProfessorID != "" {
		if err := s.requireProfessor(ctx, input.ProfessorID); err != nil {
			return nil, err
		}
	}
	return days, nil
}

func (s *ScheduleService) requireProfessor(ctx context.Context, id string) error {
	professor, err := s.professors.Get(ctx, id)
	if err != nil {
		return err
	}
	if professor == nil {
		return academy.ErrUnknownProfessor
	}
	return nil
}

// Sessions lists held sessions between two days, newest first.
func (s *ScheduleService) Sessions(ctx context.Context, from, to time.Time) ([]academy.ClassSession, error) {
	return s.classes.ListSessions(ctx, civilDay(from), civilDay(to))
}

// Sheet loads the roll call of a class: active students plus saved marks.
func (s *ScheduleService) Sheet(ctx context.Context, classID string, date time.Time) (*AttendanceSheet, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, academy.ErrNotFound
	}
	day := civilDay(date)
	students, err := s.students.List(ctx, academy.StudentFilter{Status: academy.StudentActive})
	if err != nil {
		return nil, err
	}
	marks, err := s.attendance.ListForClass(ctx, classID, day)
	if err != nil {
		return nil, err
	}
	return &AttendanceSheet{Class: *class, Date: day, Students: students, Marks: marks}, nil
}

// RecordAttendance saves a roll call: the session of (class, date) becomes
// completed with the given professor, and every active student gets a mark.
// Saving the same sheet twice overwrites it.
func (s *ScheduleService) RecordAttendance(ctx context.Context, input AttendanceSheetInput) (*academy.ClassSession, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	class, err := s.classes.GetClass(ctx, input.ClassID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, academy.ErrNotFound
	}
	professorID := input.ProfessorID
	if professorID == "" {
		professorID = class.ProfessorID
	}
	if professorID != "" {
		if err := s.requireProfessor(ctx, professorID); err != nil {
			return nil, err
		}
	}
	day := s.Today()
	if !input.Date.IsZero() {
		day = civilDay(input.Date)
	}
	students, err := s.students.List(ctx, academy.StudentFilter{Status: academy.StudentActive})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &academy.ClassSession{
		ID:               s.newID(),
		ClassID:          class.ID,
		Date:             day,
		ProfessorID:      professorID,
		ProfessorPresent: input.ProfessorPresent,
		Status:           academy.SessionCompleted,
		Notes:            strings.TrimSpace(input.Notes),
		CreatedAt:        now,
	}
	records := make([]academy.Attendance, 0, len(students))
	for _, student := range students {
		records = append(records, academy.Attendance{
			ID:        s.newID(),
			StudentID: student.ID,
			ClassID:   class.ID,
			Date:      day,
			Present:   input.Present[student.ID],
			CreatedAt: now,
		})
	}
	if err := s.attendance.RecordSheet(ctx, session, records); err != nil {
		return nil, err
	}
	return session, nil
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
