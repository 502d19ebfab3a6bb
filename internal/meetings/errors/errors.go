package errors

import "errors"

var (
	ErrInvalidID = errors.New("invalid ID format")

	ErrSlotNotFound = errors.New("meeting slot not found")

	// ErrSlotUnavailable covers a slot that is full, blocked, already started or missing.
	ErrSlotUnavailable = errors.New("meeting slot not available")

	ErrSlotHasBookings = errors.New("meeting slot has bookings")

	ErrCapacityBelowBookings = errors.New("max bookings below current bookings")

	ErrTokenNotFound = errors.New("booking token not found")

	ErrTokenExpired = errors.New("booking token expired")

	ErrTokenUsed = errors.New("booking token already used")

	// ErrTokenNotConsumable is returned when the conditional consume matched nothing.
	ErrTokenNotConsumable = errors.New("booking token cannot be consumed")

	ErrLeadNotFound = errors.New("lead not found")

	ErrBookingNotFound = errors.New("booking not found")

	ErrDuplicateBooking = errors.New("booking already exists for token")

	ErrInvalidTransition = errors.New("invalid booking status transition")
)
