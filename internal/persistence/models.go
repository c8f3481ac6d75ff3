package persistence

import "time"

// Task is the stored form of a to-do item.
type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     *string
	Category    string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Meeting is the stored form of a meeting and its participant list.
type Meeting struct {
	ID              string
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	Participants    []string
	Notes           *string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TeamMember is the stored form of a directory entry.
type TeamMember struct {
	ID                 string
	Name               string
	Email              string
	AvailabilityStatus string
	NextAvailable      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// User represents an account together with its password hash.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// VerificationToken maps an opaque token to the user whose email it verifies.
type VerificationToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
