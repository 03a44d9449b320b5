package finance

import "errors"

var (
	ErrNotFound          = errors.New("finance: not found")
	ErrGhostNotFound     = errors.New("finance: projected entry not found")
	ErrInvalidGhostID    = errors.New("finance: invalid projected entry id")
	ErrInvalidPeriod     = errors.New("finance: period end before start")
	ErrUnknownPreset     = errors.New("finance: unknown period preset")
	ErrInvalidEntryType  = errors.New("finance: invalid entry type")
	ErrInvalidStatus     = errors.New("finance: invalid entry status")
	ErrInvalidAmount     = errors.New("finance: amount must be positive")
	ErrEmptyCategory     = errors.New("finance: empty category")
	ErrEmptyID           = errors.New("finance: empty id")
	ErrProjectedReadOnly = errors.New("finance: projected entries cannot be modified")
	ErrAlreadyPaid       = errors.New("finance: already paid for this period")
)
