package academy

import (
	"context"
	"time"
)

// PlanRepository persists tuition plans.
type PlanRepository interface {
	List(ctx context.Context) ([]Plan, error)
	Get(ctx context.Context, id string) (*Plan, error)
	Save(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
}

// StudentRepository persists students.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]Student, error)
	Get(ctx context.Context, id string) (*Student, error)
	Save(ctx context.Context, student *Student) error
	CountByPlan(ctx context.Context, planID string) (int, error)
}

// ProfessorRepository persists professors.
type ProfessorRepository interface {
	List(ctx context.Context) ([]Professor, error)
	Get(ctx context.Context, id string) (*Professor, error)
	Save(ctx context.Context, professor *Professor) error
	Delete(ctx context.Context, id string) error
}

// ClassRepository persists the weekly schedule and held sessions.
type ClassRepository interface {
	ListClasses(ctx context.Context) ([]Class, error)
	GetClass(ctx context.Context, id string) (*Class, error)
	SaveClass(ctx context.Context, class *Class) error
	DeleteClass(ctx context.Context, id string) error
	ListSessions(ctx context.Context, from, to time.Time) ([]ClassSession, error)
}

// AttendanceRepository persists presence marks.
type AttendanceRepository interface {
	ListForClass(ctx context.Context, classID string, date time.Time) ([]Attendance, error)
	// RecordSheet upserts the session of (class, date) and every mark in one
	// transaction.
	RecordSheet(ctx context.Context, session *ClassSession, records []Attendance) error
	CountPresentSince(ctx context.Context, studentID string, since time.Time) (int, error)
}

// GraduationRepository persists promotions.
type GraduationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]Graduation, error)
	Last(ctx context.Context, studentID string) (*Graduation, error)
	// Promote stores the graduation and moves the student to its belt and
	// degrees in one transaction.
	Promote(ctx context.Context, graduation *Graduation) error
}

// GymRepository persists the academy identity.
type GymRepository interface {
	Get(ctx context.Context) (*GymInfo, error)
	Save(ctx context.Context, info *GymInfo) error
}
