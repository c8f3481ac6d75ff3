package persistence

import (
	"context"
	"time"
)

// TaskRepository exposes CRUD operations for tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// MeetingRepository stores meetings and their participants.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	UpdateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context) ([]Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

// TeamMemberRepository exposes CRUD operations for the team directory.
type TeamMemberRepository interface {
	CreateTeamMember(ctx context.Context, member TeamMember) error
	UpdateTeamMember(ctx context.Context, member TeamMember) error
	GetTeamMember(ctx context.Context, id string) (TeamMember, error)
	ListTeamMembers(ctx context.Context) ([]TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error
}

// UserRepository stores accounts. Email and username are unique, compared
// case-insensitively.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	// DeleteUser removes an account along with its sessions and verification tokens.
	DeleteUser(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error)
}

// VerificationTokenRepository stores outstanding email verification tokens.
type VerificationTokenRepository interface {
	CreateVerificationToken(ctx context.Context, token VerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, token string) error
	DeleteVerificationTokensForUser(ctx context.Context, userID string) error
	DeleteExpiredVerificationTokens(ctx context.Context, reference time.Time) (int, error)
}

// Store bundles every repository behind one closable backend.
type Store interface {
	TaskRepository
	MeetingRepository
	TeamMemberRepository
	UserRepository
	SessionRepository
	VerificationTokenRepository
	Close() error
}
