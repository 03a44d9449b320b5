package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	academy "sensei-backoffice/internal/academy/domain"
)

// PlanRepository keeps plans in memory.
type PlanRepository struct {
	mu   sync.RWMutex
	data map[string]academy.Plan
}

// NewPlanRepository constructs a repository seeded with plans.
func NewPlanRepository(seed ...academy.Plan) *PlanRepository {
	r := &PlanRepository{data: make(map[string]academy.Plan)}
	for _, plan := range seed {
		r.data[plan.ID] = plan
	}
	return r
}

func (r *PlanRepository) List(_ context.Context) ([]academy.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]academy.Plan, 0, len(r.data))
	for _, plan := range r.data {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *PlanRepository) Get(_ context.Context, id string) (*academy.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &plan, nil
}

func (r *PlanRepository) Save(_ context.Context, plan *academy.Plan) error {
	if plan == nil || plan.ID == "" {
		return academy.ErrEmptyID
	}
	r.mu.Lock()
	r.data[plan.ID] = *plan
	r.mu.Unlock()
	return nil
}

func (r *PlanRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return academy.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// StudentRepository keeps students in memory.
type StudentRepository struct {
	mu   sync.RWMutex
	data map[string]academy.Student
}

// NewStudentRepository constructs a repository seeded with students.
func NewStudentRepository(seed ...academy.Student) *StudentRepository {
	r := &StudentRepository{data: make(map[string]academy.Student)}
	for _, student := range seed {
		r.data[student.ID] = student
	}
	return r
}

func (r *StudentRepository) List(_ context.Context, filter academy.StudentFilter) ([]academy.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []academy.Student
	for _, student := range r.data {
		if filter.Matches(student) {
			out = append(out, student)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *StudentRepository) Get(_ context.Context, id string) (*academy.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	student, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &student, nil
}

func (r *StudentRepository) Save(_ context.Context, student *academy.Student) error {
	if student == nil || student.ID == "" {
		return academy.ErrEmptyID
	}
	r.mu.Lock()
	r.data[student.ID] = *student
	r.mu.Unlock()
	return nil
}

func (r *StudentRepository) CountByPlan(_ context.Context, planID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, student := range r.data {
		if student.PlanID == planID {
			count++
		}
	}
	return count, nil
}

func (r *StudentRepository) promote(g academy.Graduation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.data[g.StudentID]
	if !ok {
		return false
	}
	student.Belt = g.Belt
	student.Degrees = g.Degrees
	r.data[g.StudentID] = student
	return true
}

// ProfessorRepository keeps professors in memory.
type ProfessorRepository struct {
	mu   sync.RWMutex
	data map[string]academy.Professor
}

// NewProfessorRepository constructs a repository seeded with professors.
func NewProfessorRepository(seed ...academy.Professor) *ProfessorRepository {
	r := &ProfessorRepository{data: make(map[string]academy.Professor)}
	for _, professor := range seed {
		r.data[professor.ID] = professor
	}
	return r
}

func (r *ProfessorRepository) List(_ context.Context) ([]academy.Professor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]academy.Professor, 0, len(r.data))
	for _, professor := range r.data {
		out = append(out, professor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *ProfessorRepository) Get(_ context.Context, id string) (*academy.Professor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	professor, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &professor, nil
}

func (r *ProfessorRepository) Save(_ context.Context, professor *academy.Professor) error {
	if professor == nil || professor.ID == "" {
		return academy.ErrEmptyID
	}
	r.mu.Lock()
	r.data[professor.ID] = *professor
	r.mu.Unlock()
	return nil
}

func (r *ProfessorRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return academy.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// GymRepository keeps the gym identity in memory.
type GymRepository struct {
	mu   sync.RWMutex
	info *academy.GymInfo
}

func (r *GymRepository) Get(_ context.Context) (*academy.GymInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.info == nil {
		return nil, nil
	}
	info := *r.info
	return &info, nil
}

func (r *GymRepository) Save(_ context.Context, info *academy.GymInfo) error {
	if info == nil {
		return nil
	}
	r.mu.Lock()
	saved := *info
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	r.info = &saved
	r.mu.Unlock()
	return nil
}
