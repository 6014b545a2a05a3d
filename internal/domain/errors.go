package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUserNotFound = errors.New("user not found")

	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Validation errors for schedule release operations. These are raised before
// any mutation; a rejected freeze/unfreeze leaves the schedule untouched.
var (
	ErrVersionNameEmpty    = errors.New("schedule version name is empty")
	ErrVersionNameReserved = errors.New("schedule version name is reserved")
	ErrVersionNameTaken    = errors.New("schedule version name already in use")
	ErrAlreadyReleased     = errors.New("schedule is already released")
	ErrNotReleased         = errors.New("schedule is not released")
)

// ErrWIPConflict signals that more than one working draft exists for an event.
// Unreachable under correct transactional isolation; aborts the transaction.
var ErrWIPConflict = errors.New("more than one working draft schedule for event")
