package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a request carries no live session.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a write would violate a uniqueness rule or the
	// resource is already in the requested state.
	ErrConflict = errors.New("application: conflict")
	// ErrAuthentication groups credential failures. Messages stay deliberately vague.
	ErrAuthentication = errors.New("application: authentication failed")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthentication)
	ErrEmailNotVerified   = fmt.Errorf("%w: email not verified", ErrAuthentication)

	ErrEmailTaken      = fmt.Errorf("%w: an account with this email already exists", ErrConflict)
	ErrUsernameTaken   = fmt.Errorf("%w: this username is already taken", ErrConflict)
	ErrAlreadyVerified = fmt.Errorf("%w: email is already verified", ErrConflict)

	ErrInvalidVerificationToken = fmt.Errorf("%w: invalid or expired verification token", ErrNotFound)
	ErrUserNotFound             = fmt.Errorf("%w: user not found", ErrNotFound)
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 1 {
		for field, msg := range v.FieldErrors {
			return fmt.Sprintf("validation failed: %s: %s", field, msg)
		}
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// NewValidationError returns a ValidationError holding a single field message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}
