package booking

import "errors"

var (
	// ErrValidation covers missing required fields and bad time windows.
	ErrValidation = errors.New("validation failed")
	// ErrNotCreator is returned when a non-creator tries to edit or delete.
	ErrNotCreator = errors.New("only the creator may do this")
	// ErrFull is returned by Join when the two-person slot is taken.
	ErrFull = errors.New("appointment is full")
	// ErrAlreadyJoined is returned by Join for a current participant.
	ErrAlreadyJoined = errors.New("already a participant")
	// ErrNotFound is returned when the appointment no longer exists.
	ErrNotFound = errors.New("appointment not found")
)
