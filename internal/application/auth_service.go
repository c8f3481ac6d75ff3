package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultSessionTTL matches the lifetime of the session cookie.
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultVerificationTTL = 48 * time.Hour

	minUsernameLength = 3
	minPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// VerificationNotifier delivers verification tokens out of band.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, user User, token VerificationToken) error
}

// LogNotifier writes verification tokens to the structured log instead of sending mail.
type LogNotifier struct {
	Logger *slog.Logger
}

// SendVerification implements VerificationNotifier.
func (n LogNotifier) SendVerification(ctx context.Context, user User, token VerificationToken) error {
	defaultLogger(n.Logger).InfoContext(ctx, "verification token issued",
		"user_id", user.ID,
		"email", user.Email,
		"expires_at", token.ExpiresAt,
	)
	return nil
}

// AuthServiceDeps bundles the collaborators of AuthService. Only Users,
// Sessions and Tokens are required.
type AuthServiceDeps struct {
	Users           UserRepository
	Sessions        SessionRepository
	Tokens          VerificationTokenRepository
	Notifier        VerificationNotifier
	HashPassword    PasswordHasher
	VerifyPassword  PasswordVerifier
	IDGenerator     func() string
	TokenGenerator  func() string
	Now             func() time.Time
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	Latency         *Latency
	Logger          *slog.Logger
}

// AuthService coordinates registration, email verification and session lifecycle.
type AuthService struct {
	users           UserRepository
	sessions        SessionRepository
	tokens          VerificationTokenRepository
	notifier        VerificationNotifier
	hashPassword    PasswordHasher
	verifyPassword  PasswordVerifier
	idGenerator     func() string
	tokenGenerator  func() string
	now             func() time.Time
	sessionTTL      time.Duration
	verificationTTL time.Duration
	latency         *Latency
	logger          *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService constructs an AuthService, filling unset dependencies with defaults.
func NewAuthService(deps AuthServiceDeps) *AuthService {
	if deps.HashPassword == nil {
		deps.HashPassword = HashPassword
	}
	if deps.VerifyPassword == nil {
		deps.VerifyPassword = VerifyPassword
	}
	if deps.TokenGenerator == nil {
		deps.TokenGenerator = NewToken
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = DefaultSessionTTL
	}
	if deps.VerificationTTL <= 0 {
		deps.VerificationTTL = DefaultVerificationTTL
	}
	logger := defaultLogger(deps.Logger)
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{Logger: logger}
	}
	return &AuthService{
		users:           deps.Users,
		sessions:        deps.Sessions,
		tokens:          deps.Tokens,
		notifier:        deps.Notifier,
		hashPassword:    deps.HashPassword,
		verifyPassword:  deps.VerifyPassword,
		idGenerator:     defaultIDGenerator(deps.IDGenerator),
		tokenGenerator:  deps.TokenGenerator,
		now:             defaultNow(deps.Now),
		sessionTTL:      deps.SessionTTL,
		verificationTTL: deps.VerificationTTL,
		latency:         deps.Latency,
		logger:          logger,
	}
}

// SessionTTL reports how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	if s == nil {
		return DefaultSessionTTL
	}
	return s.sessionTTL
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil || s.sessions == nil || s.tokens == nil {
		return fmt.Errorf("auth repositories not configured")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegistration reports the first violated rule only.
func validateRegistration(username, email string, params RegisterParams) *ValidationError {
	switch {
	case len([]rune(username)) < minUsernameLength:
		return NewValidationError("username", "Username must be at least 3 characters long")
	case !emailPattern.MatchString(email):
		return NewValidationError("email", "Please enter a valid email address")
	case len(params.Password) < minPasswordLength:
		return NewValidationError("password", "Password must be at least 6 characters long")
	case params.Password != params.ConfirmPassword:
		return NewValidationError("confirm_password", "Passwords do not match")
	}
	return nil
}

// Register validates the sign-up form, stores an unverified user and issues a
// verification token. The token is handed to the notifier and returned to the caller.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result RegisterResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	username := strings.TrimSpace(params.Username)
	email := normalizeEmail(params.Email)

	logger := s.loggerWith(ctx, "Register", "email", email, "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	}()

	if err = s.latency.Wait(ctx, OpRegister); err != nil {
		return
	}

	if vErr := validateRegistration(username, email, params); vErr != nil {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetCredentialsByEmail(ctx, email); lookupErr == nil {
		err = ErrEmailTaken
		return
	} else if !isNotFound(lookupErr) {
		err = lookupErr
		return
	}
	if _, lookupErr := s.users.GetUserByUsername(ctx, username); lookupErr == nil {
		err = ErrUsernameTaken
		return
	} else if !isNotFound(lookupErr) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = runHasher(ctx, s.hashPassword, params.Password)
	if err != nil {
		return
	}

	now := s.now()
	var user User
	user, err = s.users.CreateUser(ctx, UserCredentials{
		User: User{
			ID:        s.idGenerator(),
			Username:  username,
			Email:     email,
			CreatedAt: now,
		},
		PasswordHash: hash,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var token VerificationToken
	token, err = s.issueVerificationToken(ctx, user, now)
	if err != nil {
		s.discardUser(ctx, logger, user.ID)
		return
	}

	result = RegisterResult{User: user, VerificationToken: token.Token}
	return
}

// discardUser removes an account whose registration could not complete.
func (s *AuthService) discardUser(ctx context.Context, logger *slog.Logger, userID string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.tokens.DeleteTokensForUser(ctx, userID); err != nil {
		logger.WarnContext(ctx, "failed to discard verification tokens", "user_id", userID, "error", err)
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		logger.WarnContext(ctx, "failed to discard unverified user", "user_id", userID, "error", err)
	}
}

func (s *AuthService) issueVerificationToken(ctx context.Context, user User, now time.Time) (VerificationToken, error) {
	token := VerificationToken{
		Token:     s.tokenGenerator(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.verificationTTL),
	}
	if err := s.tokens.CreateToken(ctx, token); err != nil {
		return VerificationToken{}, mapRepoError(err)
	}
	if s.notifier != nil {
		if err := s.notifier.SendVerification(ctx, user, token); err != nil {
			return VerificationToken{}, fmt.Errorf("send verification: %w", err)
		}
	}
	return token, nil
}

// Login checks credentials and opens a new session. Unknown emails and wrong
// passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "login succeeded")
	}()

	if err = s.latency.Wait(ctx, OpLogin); err != nil {
		return
	}

	if email == "" || params.Password == "" {
		err = NewValidationError("credentials", "Email and password are required")
		return
	}

	creds, lookupErr := s.users.GetCredentialsByEmail(ctx, email)
	if lookupErr != nil {
		if !isNotFound(lookupErr) {
			err = lookupErr
			return
		}
		// Spend the same hashing work as a real comparison.
		_ = runVerifier(ctx, s.verifyPassword, s.decoy(), params.Password)
		err = ErrInvalidCredentials
		return
	}

	if verifyErr := runVerifier(ctx, s.verifyPassword, creds.PasswordHash, params.Password); verifyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return
		}
		err = ErrInvalidCredentials
		return
	}

	if !creds.User.EmailVerified {
		err = ErrEmailNotVerified
		return
	}

	now := s.now()
	if _, err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}

	var session Session
	session, err = s.sessions.CreateSession(ctx, Session{
		ID:        s.idGenerator(),
		UserID:    creds.User.ID,
		Token:     s.tokenGenerator(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	result = LoginResult{User: creds.User, Session: session}
	return
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hashPassword(s.tokenGenerator())
		if err == nil {
			s.decoyHash = hash
		}
	})
	return s.decoyHash
}

// Logout revokes the session behind token. Unknown or empty tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "Logout", "token_provided", trimmed != "")

	if err := s.latency.Wait(ctx, OpLogout); err != nil {
		logger.ErrorContext(ctx, "logout interrupted", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if trimmed == "" {
		logger.InfoContext(ctx, "logout without session")
		return nil
	}

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if isNotFound(err) {
			logger.InfoContext(ctx, "logout without session")
			return nil
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// liveSession loads the session for token and checks that it is neither expired nor revoked.
func (s *AuthService) liveSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, fmt.Errorf("%w: session revoked", ErrUnauthorized)
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		return Session{}, fmt.Errorf("%w: session expired", ErrUnauthorized)
	}
	return session, nil
}

// CurrentUser resolves the user behind token. The boolean is false, with a nil
// error, when nobody is signed in.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (user User, ok bool, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "CurrentUser", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "current user lookup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "current user resolved", "authenticated", ok, "user_id", user.ID)
	}()

	if err = s.latency.Wait(ctx, OpCurrentUser); err != nil {
		return
	}

	user, err = s.userForToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return user, true, nil
}

func (s *AuthService) userForToken(ctx context.Context, token string) (User, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return User{}, err
	}
	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			return User{}, fmt.Errorf("%w: session user missing", ErrUnauthorized)
		}
		return User{}, err
	}
	return user, nil
}

// IsAuthenticated reports whether token maps to a live session. It never waits
// on the latency profile.
func (s *AuthService) IsAuthenticated(ctx context.Context, token string) bool {
	if s.ready() != nil {
		return false
	}
	_, err := s.userForToken(ctx, strings.TrimSpace(token))
	return err == nil
}

// VerifyEmail consumes a verification token and marks its user as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "VerifyEmail", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "email verification failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "email verified")
	}()

	if err = s.latency.Wait(ctx, OpVerifyEmail); err != nil {
		return
	}
	if trimmed == "" {
		err = ErrInvalidVerificationToken
		return
	}

	var record VerificationToken
	record, err = s.tokens.GetToken(ctx, trimmed)
	if err != nil {
		if isNotFound(err) {
			err = ErrInvalidVerificationToken
		}
		return
	}

	if !record.ExpiresAt.IsZero() && !record.ExpiresAt.After(s.now()) {
		if delErr := s.tokens.DeleteToken(ctx, trimmed); delErr != nil && !isNotFound(delErr) {
			err = delErr
			return
		}
		err = ErrInvalidVerificationToken
		return
	}

	user, err = s.users.GetUser(ctx, record.UserID)
	if err != nil {
		if isNotFound(err) {
			err = ErrInvalidVerificationToken
		}
		return
	}

	user.EmailVerified = true
	user, err = s.users.UpdateUser(ctx, user)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if err = s.tokens.DeleteToken(ctx, trimmed); err != nil && !isNotFound(err) {
		return
	}
	err = nil
	return
}

// ResendVerification issues a fresh token for an unverified account. Earlier
// tokens for the same user stop working.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (token string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	normalized := normalizeEmail(email)
	logger := s.loggerWith(ctx, "ResendVerification", "email", normalized)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "verification resend failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "verification resent")
	}()

	if err = s.latency.Wait(ctx, OpResendVerification); err != nil {
		return
	}

	var creds UserCredentials
	creds, err = s.users.GetCredentialsByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			err = ErrUserNotFound
		}
		return
	}
	if creds.User.EmailVerified {
		err = ErrAlreadyVerified
		return
	}

	if err = s.tokens.DeleteTokensForUser(ctx, creds.User.ID); err != nil {
		return
	}

	var issued VerificationToken
	issued, err = s.issueVerificationToken(ctx, creds.User, s.now())
	if err != nil {
		return
	}
	token = issued.Token
	return
}

// ProvisionUserParams describes an account created outside the sign-up flow.
type ProvisionUserParams struct {
	Username string
	Email    string
	Password string
	Verified bool
}

// ProvisionUser creates an account unless one with the same email exists.
// It is used to install the demo account.
func (s *AuthService) ProvisionUser(ctx context.Context, params ProvisionUserParams) (user User, created bool, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "ProvisionUser", "email", email)

	existing, lookupErr := s.users.GetCredentialsByEmail(ctx, email)
	if lookupErr == nil {
		logger.InfoContext(ctx, "account already provisioned", "user_id", existing.User.ID)
		return existing.User, false, nil
	}
	if !isNotFound(lookupErr) {
		err = lookupErr
		return
	}

	var hash string
	if hash, err = runHasher(ctx, s.hashPassword, params.Password); err != nil {
		return
	}
	user, err = s.users.CreateUser(ctx, UserCredentials{
		User: User{
			ID:            s.idGenerator(),
			Username:      strings.TrimSpace(params.Username),
			Email:         email,
			EmailVerified: params.Verified,
			CreatedAt:     s.now(),
		},
		PasswordHash: hash,
	})
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to provision account", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.InfoContext(ctx, "account provisioned", "user_id", user.ID)
	return user, true, nil
}

// PruneResult counts the records removed by PruneExpired.
type PruneResult struct {
	Sessions int
	Tokens   int
}

// PruneExpired removes sessions and verification tokens whose lifetime has passed.
func (s *AuthService) PruneExpired(ctx context.Context) (result PruneResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "PruneExpired")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "prune failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "expired credentials pruned", "sessions", result.Sessions, "tokens", result.Tokens)
	}()

	now := s.now()
	if result.Sessions, err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	result.Tokens, err = s.tokens.DeleteExpiredTokens(ctx, now)
	return
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(mapRepoError(err), ErrNotFound)
}
