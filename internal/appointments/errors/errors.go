package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotTaken is returned when the active-slot unique index rejects a write.
	ErrSlotTaken = errors.New("appointment slot already booked")

	// ErrStatusChanged is returned when a conditional write finds the
	// appointment in a different status than the caller read.
	ErrStatusChanged = errors.New("appointment status changed concurrently")

	ErrLockNotAcquired = errors.New("slot lock not acquired")
)
