package academy

import (
	"fmt"
	"sort"
	"time"
)

const (
	whiteBeltClassesPerDegree = 30
	classesPerDegree          = 50
	beltChangeMilestone       = "Troca de Faixa"
)

// Graduation records a promotion.
type Graduation struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Belt          string    `json:"belt"`
	Degrees       int       `json:"degrees"`
	PromotionDate time.Time `json:"promotion_date"`
	ProfessorID   string    `json:"professor_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Eligibility is a student's progress toward the next promotion.
type Eligibility struct {
	Student         Student   `json:"student"`
	ClassesAttended int       `json:"classes_attended"`
	RequiredClasses int       `json:"required_classes"`
	Since           time.Time `json:"since"`
	Eligible        bool      `json:"eligible"`
	NextMilestone   string    `json:"next_milestone"`
	Progress        float64   `json:"progress"`
}

// RequiredClasses is the attendance needed for the next degree.
func RequiredClasses(s Student) int {
	if s.IsWhiteBelt() {
		return whiteBeltClassesPerDegree
	}
	return classesPerDegree
}

// NextMilestone names the next promotion of s.
func NextMilestone(s Student) string {
	if s.Degrees >= MaxDegrees {
		return beltChangeMilestone
	}
	return fmt.Sprintf("%dº Grau", s.Degrees+1)
}

// Evaluate computes eligibility from the present classes counted since the
// last promotion.
func Evaluate(s Student, attended int, since time.Time) Eligibility {
	required := RequiredClasses(s)
	progress := float64(attended) * 100 / float64(required)
	if progress > 100 {
		progress = 100
	}
	return Eligibility{
		Student:         s,
		ClassesAttended: attended,
		RequiredClasses: required,
		Since:           since,
		Eligible:        attended >= required,
		NextMilestone:   NextMilestone(s),
		Progress:        progress,
	}
}

// SortEligibility puts eligible students first, then by progress descending,
// then by name.
func SortEligibility(items []Eligibility) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Eligible != items[j].Eligible {
			return items[i].Eligible
		}
		if items[i].Progress != items[j].Progress {
			return items[i].Progress > items[j].Progress
		}
		return items[i].Student.FullName < items[j].Student.FullName
	})
}
