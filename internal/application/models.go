package application

import "time"

// DateLayout is the calendar date format exchanged with clients and stored on records.
const DateLayout = "2006-01-02"

// ClockLayout is the wall clock format used for meeting start times.
const ClockLayout = "15:04"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID   string
	Username string
}

// TaskCategory enumerates the buckets a task can be filed under.
type TaskCategory string

const (
	TaskCategoryPersonal TaskCategory = "Personal"
	TaskCategoryTeam     TaskCategory = "Team"
	TaskCategoryClient   TaskCategory = "Client"
)

// Valid reports whether the category is one of the known values.
func (c TaskCategory) Valid() bool {
	switch c {
	case TaskCategoryPersonal, TaskCategoryTeam, TaskCategoryClient:
		return true
	}
	return false
}

// Task is a to-do item owned by the task store.
type Task struct {
	ID          string
	Title       string
	Description string
	// DueDate is a calendar date in DateLayout, empty when the task has no due date.
	DueDate   string
	Category  TaskCategory
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskInput captures caller provided fields for a new task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Category    TaskCategory
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Category    *TaskCategory
	Completed   *bool
}

// TaskFilter selects which tasks a listing returns.
type TaskFilter string

const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterPending   TaskFilter = "pending"
	TaskFilterCompleted TaskFilter = "completed"
)

// Meeting is a scheduled gathering of team members. Overlaps are allowed.
type Meeting struct {
	ID              string
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	ParticipantIDs  []string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MeetingInput captures caller provided fields for a new meeting.
type MeetingInput struct {
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	ParticipantIDs  []string
	Notes           string
	CreatedBy       string
}

// MeetingPatch carries a partial meeting update.
type MeetingPatch struct {
	Title           *string
	Date            *string
	Time            *string
	DurationMinutes *int
	ParticipantIDs  *[]string
	Notes           *string
}

// AvailabilityStatus is the coarse availability of a team member or heatmap slot.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityTentative AvailabilityStatus = "tentative"
	AvailabilityUnknown   AvailabilityStatus = "unknown"
)

// Normalize maps unrecognised values to AvailabilityUnknown.
func (s AvailabilityStatus) Normalize() AvailabilityStatus {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityTentative:
		return s
	}
	return AvailabilityUnknown
}

// Label returns the human readable label for the status.
func (s AvailabilityStatus) Label() string {
	switch s.Normalize() {
	case AvailabilityAvailable:
		return "Available"
	case AvailabilityBusy:
		return "Busy"
	case AvailabilityTentative:
		return "Tentative"
	}
	return "Unknown"
}

// Availability describes a team member's current state.
type Availability struct {
	Status        AvailabilityStatus
	NextAvailable string
}

// TeamMember is a person who can be invited to meetings.
type TeamMember struct {
	ID           string
	Name         string
	Email        string
	Availability Availability
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamMemberInput captures caller provided fields for a new team member.
type TeamMemberInput struct {
	Name         string
	Email        string
	Availability Availability
}

// TeamMemberPatch carries a partial team member update.
type TeamMemberPatch struct {
	Name         *string
	Email        *string
	Availability *Availability
}

// User is an account exposed to callers. It never carries the password hash.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// VerificationToken proves control of an email address. It is single use.
type VerificationToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RegisterParams captures the data required to create an account.
type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegisterResult is returned on successful registration.
type RegisterResult struct {
	User              User
	VerificationToken string
}

// LoginParams captures the data required to sign in.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult captures the outcome of a successful sign in.
type LoginResult struct {
	User    User
	Session Session
}
