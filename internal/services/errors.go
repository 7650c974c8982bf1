package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("user already exists")
	ErrTherapistExists   = errors.New("therapist profile already exists")
	ErrForbidden         = errors.New("access denied")
	ErrSlotTaken         = errors.New("time slot not available")
	ErrSlotBusy          = errors.New("slot is being booked, please retry")
	ErrNotOnboarded      = errors.New("therapist is not accepting bookings")
	ErrUnavailableDay    = errors.New("therapist is not available on this day")
	ErrPastDate          = errors.New("cannot book an appointment in the past")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoScorableAnswers = errors.New("no scorable answers provided")
	ErrNotConfigured     = errors.New("service not configured")
)
