package domain

import "errors"

var (
	ErrRideNotFound         = errors.New("ride not found")
	ErrInsufficientSeats    = errors.New("insufficient seats available")
	ErrInvalidTransition    = errors.New("invalid ride status transition")
	ErrConflictingOperation = errors.New("conflicting operation on ride")
	ErrReservationNotFound  = errors.New("seat reservation not found")
	ErrInvalidSeatCount     = errors.New("total seats must be at least one")
	ErrInvalidPrice         = errors.New("price per seat must not be negative")
	ErrNotRideDriver        = errors.New("actor is not the driver of this ride")
)
