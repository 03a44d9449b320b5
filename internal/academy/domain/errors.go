package academy

import "errors"

var (
	ErrNotFound             = errors.New("academy: not found")
	ErrEmptyID              = errors.New("academy: empty id")
	ErrEmptyName            = errors.New("academy: empty name")
	ErrInvalidStatus        = errors.New("academy: invalid student status")
	ErrInvalidSessionStatus = errors.New("academy: invalid session status")
	ErrInvalidDueDay        = errors.New("academy: due day must be between 1 and 31")
	ErrInvalidPrice         = errors.New("academy: price must not be negative")
	ErrInvalidDegrees       = errors.New("academy: degrees out of range")
	ErrInvalidSchedule      = errors.New("academy: schedule time must be HH:MM")
	ErrInvalidWeekday       = errors.New("academy: invalid weekday")
	ErrUnknownPlan          = errors.New("academy: unknown plan")
	ErrUnknownProfessor     = errors.New("academy: unknown professor")
	ErrPlanInUse            = errors.New("academy: plan has enrolled students")
)
