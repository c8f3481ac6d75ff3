// Package memory provides the process-local persistence backend. Records are
// copied on the way in and on the way out so callers never share state with
// the store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/teamboard/internal/persistence"
)

var _ persistence.Store = (*Storage)(nil)

// collection keeps records keyed by id and remembers insertion order.
type collection[T any] struct {
	items map[string]T
	order []string
	clone func(T) T
}

func newCollection[T any](clone func(T) T) *collection[T] {
	return &collection[T]{items: make(map[string]T), clone: clone}
}

func (c *collection[T]) insert(id string, item T) error {
	if id == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := c.items[id]; ok {
		return fmt.Errorf("%w: %s", persistence.ErrDuplicate, id)
	}
	c.items[id] = c.clone(item)
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) replace(id string, item T) error {
	if _, ok := c.items[id]; !ok {
		return persistence.ErrNotFound
	}
	c.items[id] = c.clone(item)
	return nil
}

func (c *collection[T]) get(id string) (T, error) {
	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, persistence.ErrNotFound
	}
	return c.clone(item), nil
}

func (c *collection[T]) remove(id string) error {
	if _, ok := c.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

// removeWhere deletes every record matching match and reports how many went.
func (c *collection[T]) removeWhere(match func(T) bool) int {
	kept := c.order[:0]
	removed := 0
	for _, id := range c.order {
		if match(c.items[id]) {
			delete(c.items, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return removed
}

// Storage is an in-memory implementation of persistence.Store.
type Storage struct {
	mu       sync.RWMutex
	tasks    *collection[persistence.Task]
	meetings *collection[persistence.Meeting]
	members  *collection[persistence.TeamMember]
	users    *collection[persistence.User]
	sessions *collection[persistence.Session]
	tokens   *collection[persistence.VerificationToken]
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		tasks:    newCollection(cloneTask),
		meetings: newCollection(cloneMeeting),
		members:  newCollection(cloneTeamMember),
		users:    newCollection(func(u persistence.User) persistence.User { return u }),
		sessions: newCollection(cloneSession),
		tokens:   newCollection(func(t persistence.VerificationToken) persistence.VerificationToken { return t }),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- TaskRepository implementation ---

// CreateTask stores a new task.
func (s *Storage) CreateTask(ctx context.Context, task persistence.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.insert(task.ID, task)
}

// UpdateTask replaces an existing task, keeping its creation time.
func (s *Storage) UpdateTask(ctx context.Context, task persistence.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.tasks.get(task.ID)
	if err != nil {
		return err
	}
	task.CreatedAt = existing.CreatedAt
	return s.tasks.replace(task.ID, task)
}

// GetTask retrieves a task by ID.
func (s *Storage) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.get(id)
}

// ListTasks returns all tasks in creation order.
func (s *Storage) ListTasks(ctx context.Context) ([]persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.list(), nil
}

// DeleteTask removes a task by ID.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.remove(id)
}

// --- MeetingRepository implementation ---

// CreateMeeting stores a new meeting with its participants.
func (s *Storage) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting.Participants = uniqueStrings(meeting.Participants)
	return s.meetings.insert(meeting.ID, meeting)
}

// UpdateMeeting replaces an existing meeting, keeping its creator and creation time.
func (s *Storage) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.meetings.get(meeting.ID)
	if err != nil {
		return err
	}
	meeting.Participants = uniqueStrings(meeting.Participants)
	meeting.CreatedBy = existing.CreatedBy
	meeting.CreatedAt = existing.CreatedAt
	return s.meetings.replace(meeting.ID, meeting)
}

// GetMeeting retrieves a meeting by ID.
func (s *Storage) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meetings.get(id)
}

// ListMeetings returns all meetings in creation order.
func (s *Storage) ListMeetings(ctx context.Context) ([]persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meetings.list(), nil
}

// DeleteMeeting removes a meeting by ID.
func (s *Storage) DeleteMeeting(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meetings.remove(id)
}

// --- TeamMemberRepository implementation ---

// CreateTeamMember stores a new team member.
func (s *Storage) CreateTeamMember(ctx context.Context, member persistence.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members.insert(member.ID, member)
}

// UpdateTeamMember replaces an existing team member.
func (s *Storage) UpdateTeamMember(ctx context.Context, member persistence.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.members.get(member.ID)
	if err != nil {
		return err
	}
	member.CreatedAt = existing.CreatedAt
	return s.members.replace(member.ID, member)
}

// GetTeamMember retrieves a team member by ID.
func (s *Storage) GetTeamMember(ctx context.Context, id string) (persistence.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.get(id)
}

// ListTeamMembers returns all team members in creation order.
func (s *Storage) ListTeamMembers(ctx context.Context) ([]persistence.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.list(), nil
}

// DeleteTeamMember removes a team member and drops them from meeting participant lists.
func (s *Storage) DeleteTeamMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.members.remove(id); err != nil {
		return err
	}
	for meetingID, meeting := range s.meetings.items {
		updated := removeString(meeting.Participants, id)
		if len(updated) != len(meeting.Participants) {
			meeting.Participants = updated
			s.meetings.items[meetingID] = meeting
		}
	}
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if err := s.ensureUniqueUserLocked(user); err != nil {
		return err
	}
	user.Email = normalizeEmail(user.Email)
	return s.users.insert(user.ID, user)
}

// UpdateUser updates an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.users.get(user.ID)
	if err != nil {
		return err
	}
	if err := s.ensureUniqueUserLocked(user); err != nil {
		return err
	}
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = existing.CreatedAt
	return s.users.replace(user.ID, user)
}

// DeleteUser removes a user and everything issued to it.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.users.remove(id); err != nil {
		return err
	}
	s.sessions.removeWhere(func(session persistence.Session) bool { return session.UserID == id })
	s.tokens.removeWhere(func(token persistence.VerificationToken) bool { return token.UserID == id })
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.get(id)
}

// GetUserByEmail retrieves a user by email address.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := normalizeEmail(email)
	for _, user := range s.users.items {
		if user.Email == lower {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users.items {
		if strings.EqualFold(user.Username, strings.TrimSpace(username)) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *Storage) ensureUniqueUserLocked(candidate persistence.User) error {
	email := normalizeEmail(candidate.Email)
	for existingID, user := range s.users.items {
		if existingID == candidate.ID {
			continue
		}
		if user.Email == email {
			return persistence.ErrDuplicateEmail
		}
		if strings.EqualFold(user.Username, candidate.Username) {
			return persistence.ErrDuplicateUsername
		}
	}
	return nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by its token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if err := s.sessions.insert(session.Token, session); err != nil {
		return persistence.Session{}, err
	}
	return cloneSession(session), nil
}

// GetSession retrieves a session by its token value.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions.get(strings.TrimSpace(token))
}

// RevokeSession marks a session as revoked based on its token value.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token = strings.TrimSpace(token)
	session, err := s.sessions.get(token)
	if err != nil {
		return persistence.Session{}, err
	}
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	if err := s.sessions.replace(token, session); err != nil {
		return persistence.Session{}, err
	}
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.removeWhere(func(session persistence.Session) bool {
		return !session.ExpiresAt.After(reference)
	}), nil
}

// --- VerificationTokenRepository implementation ---

// CreateVerificationToken stores a new verification token.
func (s *Storage) CreateVerificationToken(ctx context.Context, token persistence.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	return s.tokens.insert(token.Token, token)
}

// GetVerificationToken retrieves a verification token.
func (s *Storage) GetVerificationToken(ctx context.Context, token string) (persistence.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.get(strings.TrimSpace(token))
}

// DeleteVerificationToken removes a single token.
func (s *Storage) DeleteVerificationToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.remove(strings.TrimSpace(token))
}

// DeleteVerificationTokensForUser removes every token issued to userID.
func (s *Storage) DeleteVerificationTokensForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens.removeWhere(func(token persistence.VerificationToken) bool {
		return token.UserID == userID
	})
	return nil
}

// DeleteExpiredVerificationTokens removes tokens that expired on or before reference.
func (s *Storage) DeleteExpiredVerificationTokens(ctx context.Context, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens.removeWhere(func(token persistence.VerificationToken) bool {
		return !token.ExpiresAt.After(reference)
	}), nil
}

// --- Helpers ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTask(task persistence.Task) persistence.Task {
	task.DueDate = cloneString(task.DueDate)
	return task
}

func cloneMeeting(meeting persistence.Meeting) persistence.Meeting {
	participants := make([]string, len(meeting.Participants))
	copy(participants, meeting.Participants)
	meeting.Participants = participants
	meeting.Notes = cloneString(meeting.Notes)
	return meeting
}

func cloneTeamMember(member persistence.TeamMember) persistence.TeamMember {
	member.NextAvailable = cloneString(member.NextAvailable)
	return member
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		session.RevokedAt = &revoked
	}
	return session
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func removeString(values []string, target string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == target {
			continue
		}
		result = append(result, value)
	}
	return result
}
