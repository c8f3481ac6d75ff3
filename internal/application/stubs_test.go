package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/teamboard/internal/persistence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequence(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// stubRepository is a map backed Repository with error injection. It reports
// persistence sentinels the way real stores do.
type stubRepository[T any] struct {
	mu    sync.Mutex
	id    func(T) string
	items map[string]T
	order []string

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	creates int
	updates int
}

func newStubRepository[T any](id func(T) string, seed ...T) *stubRepository[T] {
	repo := &stubRepository[T]{id: id, items: make(map[string]T)}
	for _, item := range seed {
		repo.items[id(item)] = item
		repo.order = append(repo.order, id(item))
	}
	return repo
}

func (r *stubRepository[T]) Create(ctx context.Context, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		var zero T
		return zero, r.createErr
	}
	id := r.id(item)
	if _, exists := r.items[id]; exists {
		var zero T
		return zero, persistence.ErrDuplicate
	}
	r.items[id] = item
	r.order = append(r.order, id)
	return item, nil
}

func (r *stubRepository[T]) Get(ctx context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		var zero T
		return zero, r.getErr
	}
	item, ok := r.items[id]
	if !ok {
		var zero T
		return zero, persistence.ErrNotFound
	}
	return item, nil
}

func (r *stubRepository[T]) Update(ctx context.Context, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		var zero T
		return zero, r.updateErr
	}
	id := r.id(item)
	if _, ok := r.items[id]; !ok {
		var zero T
		return zero, persistence.ErrNotFound
	}
	r.items[id] = item
	return item, nil
}

func (r *stubRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubRepository[T]) List(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func newTaskStub(seed ...Task) *stubRepository[Task] {
	return newStubRepository(func(t Task) string { return t.ID }, seed...)
}

func newMeetingStub(seed ...Meeting) *stubRepository[Meeting] {
	return newStubRepository(func(m Meeting) string { return m.ID }, seed...)
}

func newMemberStub(seed ...TeamMember) *stubRepository[TeamMember] {
	return newStubRepository(func(m TeamMember) string { return m.ID }, seed...)
}

// userRepositoryStub keeps credentials keyed by user id.
type userRepositoryStub struct {
	mu        sync.Mutex
	users     map[string]UserCredentials
	lookupErr error
	createErr error
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{users: make(map[string]UserCredentials)}
}

func (r *userRepositoryStub) CreateUser(ctx context.Context, creds UserCredentials) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return User{}, r.createErr
	}
	r.users[creds.User.ID] = creds
	return creds.User, nil
}

func (r *userRepositoryStub) GetUser(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	creds, ok := r.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

func (r *userRepositoryStub) GetCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return UserCredentials{}, r.lookupErr
	}
	for _, creds := range r.users {
		if creds.User.Email == email {
			return creds, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

func (r *userRepositoryStub) GetUserByUsername(ctx context.Context, username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, creds := range r.users {
		if strings.EqualFold(creds.User.Username, username) {
			return creds.User, nil
		}
	}
	return User{}, persistence.ErrNotFound
}

func (r *userRepositoryStub) UpdateUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	creds, ok := r.users[user.ID]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	creds.User = user
	r.users[user.ID] = creds
	return user, nil
}

func (r *userRepositoryStub) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (r *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return Session{}, r.createErr
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	r.sessions[token] = session
	return session, nil
}

func (r *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls = append(r.deleteCalls, reference)
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	removed := 0
	for token, session := range r.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

type tokenRepositoryStub struct {
	mu        sync.Mutex
	tokens    map[string]VerificationToken
	createErr error
}

func newTokenRepositoryStub() *tokenRepositoryStub {
	return &tokenRepositoryStub{tokens: make(map[string]VerificationToken)}
}

func (r *tokenRepositoryStub) CreateToken(ctx context.Context, token VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *tokenRepositoryStub) GetToken(ctx context.Context, token string) (VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.tokens[token]
	if !ok {
		return VerificationToken{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *tokenRepositoryStub) DeleteToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *tokenRepositoryStub) DeleteTokensForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, record := range r.tokens {
		if record.UserID == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

func (r *tokenRepositoryStub) DeleteExpiredTokens(ctx context.Context, reference time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, record := range r.tokens {
		if !record.ExpiresAt.After(reference) {
			delete(r.tokens, token)
			removed++
		}
	}
	return removed, nil
}

func (r *tokenRepositoryStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// capturingNotifier records every token handed to it.
type capturingNotifier struct {
	mu     sync.Mutex
	tokens []VerificationToken
	err    error
}

func (n *capturingNotifier) SendVerification(ctx context.Context, user User, token VerificationToken) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.tokens = append(n.tokens, token)
	return nil
}
