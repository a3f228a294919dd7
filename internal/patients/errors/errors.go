package errors

import "errors"

var (
	ErrNotFound = errors.New("patient not found")

	ErrInvalidID = errors.New("invalid patient ID format")

	// ErrEmailTaken is returned when the unique email index rejects an insert.
	ErrEmailTaken = errors.New("patient email already registered")
)
