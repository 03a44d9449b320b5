package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	academy "sensei-backoffice/internal/academy/domain"
)

// ClassRepository keeps classes and sessions in memory.
type ClassRepository struct {
	mu       sync.RWMutex
	classes  map[string]academy.Class
	sessions map[string]academy.ClassSession
}

// NewClassRepository constructs a repository seeded with classes.
func NewClassRepository(seed ...academy.Class) *ClassRepository {
	r := &ClassRepository{
		classes:  make(map[string]academy.Class),
		sessions: make(map[string]academy.ClassSession),
	}
	for _, class := range seed {
		r.classes[class.ID] = cloneClass(class)
	}
	return r
}

func (r *ClassRepository) ListClasses(_ context.Context) ([]academy.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]academy.Class, 0, len(r.classes))
	for _, class := range r.classes {
		out = append(out, cloneClass(class))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduleTime != out[j].ScheduleTime {
			return out[i].ScheduleTime < out[j].ScheduleTime
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *ClassRepository) GetClass(_ context.Context, id string) (*academy.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.classes[id]
	if !ok {
		return nil, nil
	}
	clone := cloneClass(class)
	return &clone, nil
}

func (r *ClassRepository) SaveClass(_ context.Context, class *academy.Class) error {
	if class == nil || class.ID == "" {
		return academy.ErrEmptyID
	}
	r.mu.Lock()
	r.classes[class.ID] = cloneClass(*class)
	r.mu.Unlock()
	return nil
}

func (r *ClassRepository) DeleteClass(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[id]; !ok {
		return academy.ErrNotFound
	}
	delete(r.classes, id)
	return nil
}

func (r *ClassRepository) ListSessions(_ context.Context, from, to time.Time) ([]academy.ClassSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []academy.ClassSession
	for _, session := range r.sessions {
		if !session.Date.Before(from) && !session.Date.After(to) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ClassID < out[j].ClassID
	})
	return out, nil
}

func (r *ClassRepository) upsertSession(session academy.ClassSession) {
	key := session.ClassID + "|" + session.Date.Format(time.DateOnly)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[key]; ok {
		session.ID = existing.ID
		session.CreatedAt = existing.CreatedAt
	}
	r.sessions[key] = session
}

func cloneClass(c academy.Class) academy.Class {
	c.DaysOfWeek = append([]string(nil), c.DaysOfWeek...)
	return c
}

// AttendanceRepository keeps presence marks in memory.
type AttendanceRepository struct {
	mu      sync.RWMutex
	classes *ClassRepository
	data    map[string]academy.Attendance
}

// NewAttendanceRepository constructs a repository that records sessions in
// classes.
func NewAttendanceRepository(classes *ClassRepository, seed ...academy.Attendance) *AttendanceRepository {
	r := &AttendanceRepository{classes: classes, data: make(map[string]academy.Attendance)}
	for _, record := range seed {
		r.data[attendanceKey(record)] = record
	}
	return r
}

func (r *AttendanceRepository) ListForClass(_ context.Context, classID string, date time.Time) ([]academy.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []academy.Attendance
	for _, record := range r.data {
		if record.ClassID == classID && record.Date.Equal(date) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (r *AttendanceRepository) RecordSheet(_ context.Context, session *academy.ClassSession, records []academy.Attendance) error {
	if session != nil && r.classes != nil {
		r.classes.upsertSession(*session)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records {
		key := attendanceKey(record)
		if existing, ok := r.data[key]; ok {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
		}
		r.data[key] = record
	}
	return nil
}

func (r *AttendanceRepository) CountPresentSince(_ context.Context, studentID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, record := range r.data {
		if record.StudentID == studentID && record.Present && !record.Date.Before(since) {
			count++
		}
	}
	return count, nil
}

func attendanceKey(a academy.Attendance) string {
	return a.StudentID + "|" + a.ClassID + "|" + a.Date.Format(time.DateOnly)
}

// GraduationRepository keeps promotions in memory and updates students.
type GraduationRepository struct {
	mu       sync.RWMutex
	students *StudentRepository
	data     []academy.Graduation
}

// NewGraduationRepository constructs a repository bound to students.
func NewGraduationRepository(students *StudentRepository, seed ...academy.Graduation) *GraduationRepository {
	return &GraduationRepository{students: students, data: append([]academy.Graduation(nil), seed...)}
}

func (r *GraduationRepository) ListByStudent(_ context.Context, studentID string) ([]academy.Graduation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []academy.Graduation
	for _, g := range r.data {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PromotionDate.After(out[j].PromotionDate) })
	return out, nil
}

func (r *GraduationRepository) Last(ctx context.Context, studentID string) (*academy.Graduation, error) {
	items, err := r.ListByStudent(ctx, studentID)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *GraduationRepository) Promote(_ context.Context, graduation *academy.Graduation) error {
	if graduation == nil || graduation.ID == "" {
		return academy.ErrEmptyID
	}
	if r.students == nil || !r.students.promote(*graduation) {
		return academy.ErrNotFound
	}
	r.mu.Lock()
	r.data = append(r.data, *graduation)
	r.mu.Unlock()
	return nil
}
