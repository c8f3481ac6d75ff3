package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/teamboard/internal/persistence"
)

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	cases := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{"nil", nilErr, ""},
		{"empty", &ValidationError{}, "validation failed"},
		{"single field", NewValidationError("title", "Task title is required"), "validation failed: title: Task title is required"},
		{"several fields", &ValidationError{FieldErrors: map[string]string{"email": "bad", "password": "short"}}, "validation failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}

	if nilErr.HasErrors() || (&ValidationError{}).HasErrors() {
		t.Fatal("empty errors must not report fields")
	}
}

func TestValidationError_FirstMessageWins(t *testing.T) {
	t.Parallel()

	v := NewValidationError("username", "Username must be at least 3 characters long")
	v.add("username", "This username is already taken")
	v.add("email", "Please enter a valid email address")
	v.add("email", "ignored")

	if got := v.FieldErrors["username"]; got != "Username must be at least 3 characters long" {
		t.Fatalf("username message overwritten: %q", got)
	}
	if len(v.FieldErrors) != 2 {
		t.Fatalf("expected two fields, got %v", v.FieldErrors)
	}
}

func TestSentinelFamilies(t *testing.T) {
	t.Parallel()

	families := map[error][]error{
		ErrAuthentication: {ErrInvalidCredentials, ErrEmailNotVerified},
		ErrConflict:       {ErrEmailTaken, ErrUsernameTaken, ErrAlreadyVerified},
		ErrNotFound:       {ErrInvalidVerificationToken, ErrUserNotFound},
	}
	for parent, children := range families {
		for _, child := range children {
			if !errors.Is(child, parent) {
				t.Errorf("%v should wrap %v", child, parent)
			}
		}
	}
	if ErrInvalidCredentials.Error() == ErrEmailNotVerified.Error() {
		t.Fatal("credential failures need distinct messages")
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		is   error
	}{
		{"not found", fmt.Errorf("task t1: %w", persistence.ErrNotFound), ErrNotFound},
		{"duplicate email", persistence.ErrDuplicateEmail, ErrEmailTaken},
		{"duplicate username", persistence.ErrDuplicateUsername, ErrUsernameTaken},
		{"duplicate", persistence.ErrDuplicate, ErrConflict},
		{"already mapped", ErrUserNotFound, ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapRepoError(tc.in); !errors.Is(got, tc.is) {
				t.Fatalf("mapRepoError(%v) = %v, want %v", tc.in, got, tc.is)
			}
		})
	}

	if mapRepoError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	other := errors.New("disk full")
	if mapRepoError(other) != other {
		t.Fatal("unknown errors pass through")
	}
}
