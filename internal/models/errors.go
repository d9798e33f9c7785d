package models

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("active ticket not found")
	ErrUserNotFound   = errors.New("user not found")
)

var (
	ErrCapacityExceeded = errors.New("event is fully booked")
	ErrDuplicateBooking = errors.New("user already has an active ticket for this event")
	ErrConflict         = errors.New("booking conflict, try again")
	ErrTicketNotActive  = errors.New("ticket is not active")
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("not authorized")
	ErrEmailTaken      = errors.New("email is already registered")
	ErrValidation      = errors.New("validation error")
)
