package pos

import "errors"

var (
	ErrNotFound          = errors.New("pos: not found")
	ErrEmptyID           = errors.New("pos: empty id")
	ErrInvalidPrice      = errors.New("pos: price must not be negative")
	ErrInvalidStock      = errors.New("pos: stock must not be negative")
	ErrEmptyCart         = errors.New("pos: empty cart")
	ErrInvalidQuantity   = errors.New("pos: quantity must be positive")
	ErrInsufficientStock = errors.New("pos: insufficient stock")
)
