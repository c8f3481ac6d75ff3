package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/teamboard/internal/persistence"
)

// Repository is the CRUD contract shared by the task, meeting and team member stores.
// Implementations return copies; callers never hold references into the store.
type Repository[T any] interface {
	Create(ctx context.Context, item T) (T, error)
	Get(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
}

type (
	TaskRepository       = Repository[Task]
	MeetingRepository    = Repository[Meeting]
	TeamMemberRepository = Repository[TeamMember]
)

// UserRepository captures the account persistence needed by the auth service.
type UserRepository interface {
	CreateUser(ctx context.Context, creds UserCredentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores issued sessions keyed by token.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error)
}

// VerificationTokenRepository stores outstanding email verification tokens.
type VerificationTokenRepository interface {
	CreateToken(ctx context.Context, token VerificationToken) error
	GetToken(ctx context.Context, token string) (VerificationToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteTokensForUser(ctx context.Context, userID string) error
	DeleteExpiredTokens(ctx context.Context, reference time.Time) (int, error)
}

// mapRepoError converts storage sentinels into application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, persistence.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// NewID returns a collision resistant identifier for new records.
func NewID() string {
	return uuid.NewString()
}

// NewToken returns 32 random bytes hex encoded, suitable for session and verification tokens.
func NewToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing leaves no safe fallback for a credential.
		panic(fmt.Sprintf("application: read random token: %v", err))
	}
	return hex.EncodeToString(buf)
}

func defaultIDGenerator(gen func() string) func() string {
	if gen != nil {
		return gen
	}
	return NewID
}

func defaultNow(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return time.Now
}
