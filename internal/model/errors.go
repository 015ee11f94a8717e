package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	ErrDuplicateID    = errors.New("an account with this student ID already exists")

	// Locker errors
	ErrLockerNotFound          = errors.New("locker not found")
	ErrLockerNotAvailable      = errors.New("locker is not available")
	ErrNotLockerOwner          = errors.New("locker is rented by another user")
	ErrLockerNotRented         = errors.New("locker is not rented")
	ErrInvalidStatusTransition = errors.New("status change would leave the locker inconsistent")

	// Access code errors
	ErrInvalidAccessCode = errors.New("access code is invalid or expired")
)
