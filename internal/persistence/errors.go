package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrDuplicateEmail is returned when another user owns the email address.
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrDuplicate)
	// ErrDuplicateUsername is returned when another user owns the username.
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrDuplicate)
	// ErrConstraintViolation is returned when a record is missing required keys.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
