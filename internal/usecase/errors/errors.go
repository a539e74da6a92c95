package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Statistics errors
var (
	// ErrStore wraps any failure reported by the persistent store
	ErrStore            = errors.New("statistics store failure")
	ErrInvalidAction    = errors.New("invalid meeting action")
	ErrMissingMeetingID = errors.New("meeting id is required")
)

// Realtime errors
var (
	ErrTicketInvalid = errors.New("realtime ticket invalid or expired")
)
