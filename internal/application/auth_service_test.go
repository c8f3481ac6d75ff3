package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testArgon2idParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type authFixture struct {
	svc      *AuthService
	users    *userRepositoryStub
	sessions *sessionRepositoryStub
	tokens   *tokenRepositoryStub
	notifier *capturingNotifier
	now      *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	now := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	f := &authFixture{
		users:    newUserRepositoryStub(),
		sessions: newSessionRepositoryStub(),
		tokens:   newTokenRepositoryStub(),
		notifier: &capturingNotifier{},
		now:      &now,
	}
	f.svc = NewAuthService(AuthServiceDeps{
		Users:          f.users,
		Sessions:       f.sessions,
		Tokens:         f.tokens,
		Notifier:       f.notifier,
		HashPassword:   NewArgon2idHasher(testArgon2idParams),
		IDGenerator:    sequence("user"),
		TokenGenerator: sequence("tok"),
		Now:            func() time.Time { return *f.now },
		Logger:         discardLogger(),
	})
	return f
}

func (f *authFixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func registerParams(username, email string) RegisterParams {
	return RegisterParams{Username: username, Email: email, Password: "secret1", ConfirmPassword: "secret1"}
}

// verifiedUser registers and verifies an account, returning it.
func (f *authFixture) verifiedUser(t *testing.T, username, email string) User {
	t.Helper()
	ctx := context.Background()
	result, err := f.svc.Register(ctx, registerParams(username, email))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	user, err := f.svc.VerifyEmail(ctx, result.VerificationToken)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("stores an unverified user and issues a token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		result, err := f.svc.Register(context.Background(), registerParams("  alice ", " Alice@Example.COM "))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if result.User.Username != "alice" || result.User.Email != "alice@example.com" {
			t.Fatalf("expected normalised identity, got %+v", result.User)
		}
		if result.User.EmailVerified {
			t.Fatal("new accounts must start unverified")
		}
		if result.VerificationToken == "" {
			t.Fatal("expected a verification token")
		}

		stored, err := f.tokens.GetToken(context.Background(), result.VerificationToken)
		if err != nil {
			t.Fatalf("token not stored: %v", err)
		}
		if !stored.ExpiresAt.Equal(f.now.Add(DefaultVerificationTTL)) {
			t.Fatalf("unexpected token expiry %v", stored.ExpiresAt)
		}
		if len(f.notifier.tokens) != 1 || f.notifier.tokens[0].Token != result.VerificationToken {
			t.Fatalf("expected notifier to receive the token, got %+v", f.notifier.tokens)
		}

		creds, err := f.users.GetCredentialsByEmail(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("user not stored: %v", err)
		}
		if creds.PasswordHash == "secret1" || VerifyPassword(creds.PasswordHash, "secret1") != nil {
			t.Fatalf("expected a verifiable argon2id hash, got %q", creds.PasswordHash)
		}
	})

	t.Run("reports only the first violated rule", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name   string
			params RegisterParams
			field  string
		}{
			{"short username wins over bad email", RegisterParams{Username: "al", Email: "nope", Password: "x", ConfirmPassword: "y"}, "username"},
			{"bad email", RegisterParams{Username: "alice", Email: "alice@example", Password: "x", ConfirmPassword: "y"}, "email"},
			{"short password", RegisterParams{Username: "alice", Email: "alice@example.com", Password: "12345", ConfirmPassword: "12345"}, "password"},
			{"mismatch", RegisterParams{Username: "alice", Email: "alice@example.com", Password: "123456", ConfirmPassword: "654321"}, "confirm_password"},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				f := newAuthFixture(t)

				_, err := f.svc.Register(context.Background(), tc.params)
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if len(vErr.FieldErrors) != 1 || vErr.FieldErrors[tc.field] == "" {
					t.Fatalf("expected a single %s error, got %v", tc.field, vErr.FieldErrors)
				}
				if len(f.users.users) != 0 {
					t.Fatal("failed registration must not store a user")
				}
			})
		}
	})

	t.Run("rejects taken email and username", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		ctx := context.Background()

		if _, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com")); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		_, err := f.svc.Register(ctx, registerParams("bob", "ALICE@example.com"))
		if !errors.Is(err, ErrEmailTaken) || !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
		_, err = f.svc.Register(ctx, registerParams("Alice", "other@example.com"))
		if !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
		if len(f.users.users) != 1 {
			t.Fatalf("expected one stored user, got %d", len(f.users.users))
		}
	})

	t.Run("discards the user when the token cannot be issued", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			fail func(f *authFixture) error
		}{
			{"token insert fails", func(f *authFixture) error {
				f.tokens.createErr = errors.New("disk full")
				return f.tokens.createErr
			}},
			{"notifier fails", func(f *authFixture) error {
				f.notifier.err = errors.New("smtp down")
				return f.notifier.err
			}},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				f := newAuthFixture(t)
				ctx := context.Background()
				expected := tc.fail(f)

				if _, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com")); !errors.Is(err, expected) {
					t.Fatalf("expected %v, got %v", expected, err)
				}
				if len(f.users.users) != 0 {
					t.Fatalf("failed registration left %d users behind", len(f.users.users))
				}
				if len(f.tokens.tokens) != 0 {
					t.Fatalf("failed registration left %d tokens behind", len(f.tokens.tokens))
				}

				f.tokens.createErr = nil
				f.notifier.err = nil
				if _, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com")); err != nil {
					t.Fatalf("retrying registration failed: %v", err)
				}
			})
		}
	})

	t.Run("honours cancellation during simulated latency", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.svc.latency = DemoLatency()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("opens a session for a verified user", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		user := f.verifiedUser(t, "alice", "alice@example.com")

		result, err := f.svc.Login(context.Background(), LoginParams{Email: "Alice@example.com ", Password: "secret1"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if result.User.ID != user.ID {
			t.Fatalf("expected user %s, got %s", user.ID, result.User.ID)
		}
		if result.Session.Token == "" || result.Session.UserID != user.ID {
			t.Fatalf("unexpected session %+v", result.Session)
		}
		if !result.Session.ExpiresAt.Equal(f.now.Add(DefaultSessionTTL)) {
			t.Fatalf("expected seven day expiry, got %v", result.Session.ExpiresAt)
		}
		if len(f.sessions.deleteCalls) != 1 || !f.sessions.deleteCalls[0].Equal(*f.now) {
			t.Fatalf("expected expired sessions to be swept at login, got %v", f.sessions.deleteCalls)
		}
	})

	t.Run("fails uniformly on bad credentials", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.verifiedUser(t, "alice", "alice@example.com")

		for _, params := range []LoginParams{
			{Email: "alice@example.com", Password: "wrong-password"},
			{Email: "nobody@example.com", Password: "secret1"},
		} {
			_, err := f.svc.Login(context.Background(), params)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %s, got %v", params.Email, err)
			}
			if err.Error() != ErrInvalidCredentials.Error() {
				t.Fatalf("unexpected message %q", err.Error())
			}
		}
	})

	t.Run("requires email and password", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		_, err := f.svc.Login(context.Background(), LoginParams{Email: "  ", Password: "secret1"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["credentials"] != "Email and password are required" {
			t.Fatalf("expected credentials ValidationError, got %v", err)
		}
	})

	t.Run("rejects unverified accounts", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		if _, err := f.svc.Register(context.Background(), registerParams("alice", "alice@example.com")); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		_, err := f.svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "secret1"})
		if !errors.Is(err, ErrEmailNotVerified) || !errors.Is(err, ErrAuthentication) {
			t.Fatalf("expected ErrEmailNotVerified, got %v", err)
		}
		if len(f.sessions.sessions) != 0 {
			t.Fatal("no session may be issued to an unverified user")
		}
	})

	t.Run("propagates session store failures", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.verifiedUser(t, "alice", "alice@example.com")
		expected := errors.New("boom")
		f.sessions.createErr = expected

		_, err := f.svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "secret1"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.verifiedUser(t, "alice", "alice@example.com")

	if _, ok, err := f.svc.CurrentUser(ctx, ""); ok || err != nil {
		t.Fatalf("expected anonymous result without error, got ok=%v err=%v", ok, err)
	}

	login, err := f.svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token := login.Session.Token

	current, ok, err := f.svc.CurrentUser(ctx, token)
	if err != nil || !ok || current.ID != user.ID {
		t.Fatalf("expected current user %s, got %+v ok=%v err=%v", user.ID, current, ok, err)
	}
	if current.Username != "alice" {
		t.Fatalf("unexpected username %q", current.Username)
	}

	if err := f.svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if f.svc.IsAuthenticated(ctx, token) {
		t.Fatal("revoked session must not authenticate")
	}
	if _, ok, err := f.svc.CurrentUser(ctx, token); ok || err != nil {
		t.Fatalf("revoked session must resolve to anonymous, got ok=%v err=%v", ok, err)
	}
	if err := f.svc.Logout(ctx, "unknown-token"); err != nil {
		t.Fatalf("logout with unknown token should be a no-op, got %v", err)
	}

	second, err := f.svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	f.advance(DefaultSessionTTL)
	if _, ok, err := f.svc.CurrentUser(ctx, second.Session.Token); ok || err != nil {
		t.Fatalf("expired session should read as signed out, got ok=%v err=%v", ok, err)
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	t.Parallel()

	t.Run("tokens are single use", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		ctx := context.Background()
		result, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		user, err := f.svc.VerifyEmail(ctx, result.VerificationToken)
		if err != nil {
			t.Fatalf("VerifyEmail failed: %v", err)
		}
		if !user.EmailVerified {
			t.Fatal("expected verified user")
		}
		if _, err := f.svc.VerifyEmail(ctx, result.VerificationToken); !errors.Is(err, ErrInvalidVerificationToken) {
			t.Fatalf("expected ErrInvalidVerificationToken on reuse, got %v", err)
		}
	})

	t.Run("expired tokens are rejected and dropped", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		ctx := context.Background()
		result, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		f.advance(DefaultVerificationTTL)
		if _, err := f.svc.VerifyEmail(ctx, result.VerificationToken); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected not found for expired token, got %v", err)
		}
		if f.tokens.count() != 0 {
			t.Fatal("expired token should be deleted")
		}
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		for _, token := range []string{"", "missing"} {
			if _, err := f.svc.VerifyEmail(context.Background(), token); !errors.Is(err, ErrInvalidVerificationToken) {
				t.Fatalf("expected ErrInvalidVerificationToken for %q, got %v", token, err)
			}
		}
	})
}

func TestAuthService_ResendVerification(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ResendVerification(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	result, err := f.svc.Register(ctx, registerParams("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	fresh, err := f.svc.ResendVerification(ctx, " ALICE@example.com")
	if err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	if fresh == result.VerificationToken {
		t.Fatal("expected a new token")
	}
	if _, err := f.svc.VerifyEmail(ctx, result.VerificationToken); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Fatalf("superseded token should be invalid, got %v", err)
	}
	if _, err := f.svc.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}
	if _, err := f.svc.ResendVerification(ctx, "alice@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAuthService_ProvisionUser(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	params := ProvisionUserParams{Username: "demo", Email: "demo@example.com", Password: "password", Verified: true}

	user, created, err := f.svc.ProvisionUser(ctx, params)
	if err != nil || !created || !user.EmailVerified {
		t.Fatalf("expected verified account to be created, got %+v created=%v err=%v", user, created, err)
	}
	again, created, err := f.svc.ProvisionUser(ctx, params)
	if err != nil || created || again.ID != user.ID {
		t.Fatalf("expected existing account to be reused, got %+v created=%v err=%v", again, created, err)
	}
	if _, err := f.svc.Login(ctx, LoginParams{Email: "demo@example.com", Password: "password"}); err != nil {
		t.Fatalf("demo login failed: %v", err)
	}
}

func TestAuthService_PruneExpired(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifiedUser(t, "alice", "alice@example.com")
	if _, err := f.svc.Register(ctx, registerParams("bob", "bob@example.com")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	f.advance(DefaultSessionTTL)
	result, err := f.svc.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("PruneExpired failed: %v", err)
	}
	if result.Sessions != 1 || result.Tokens != 1 {
		t.Fatalf("expected one session and one token pruned, got %+v", result)
	}
}

func TestAuthService_NotConfigured(t *testing.T) {
	t.Parallel()

	var svc *AuthService
	if _, err := svc.Register(context.Background(), RegisterParams{}); err == nil {
		t.Fatal("expected error from nil service")
	}
	if svc.IsAuthenticated(context.Background(), "token") {
		t.Fatal("nil service must not authenticate")
	}
}
