package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teamboard/internal/application"
)

func registerBody(username, email string) map[string]string {
	return map[string]string{
		"username":         username,
		"email":            email,
		"password":         "secret1",
		"confirm_password": "secret1",
	}
}

func TestAuthHandler_RegisterAndVerify(t *testing.T) {
	t.Parallel()

	t.Run("registers an unverified user and verifies it once", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/auth/register", registerBody("bob", " Bob@Example.com "))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		registered := decode[registerResponse](t, rec)
		assert.Equal(t, "bob@example.com", registered.User.Email)
		assert.False(t, registered.User.EmailVerified)
		assert.Equal(t, "token-1", registered.VerificationToken)

		rec = srv.do(t, http.MethodPost, "/auth/verify-email", map[string]string{"token": registered.VerificationToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[userResponse](t, rec).User.EmailVerified)

		rec = srv.do(t, http.MethodPost, "/auth/verify-email", map[string]string{"token": registered.VerificationToken})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "invalid or expired verification token", decode[errorResponse](t, rec).Message)
	})

	t.Run("hides tokens unless exposed", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, func(o *serverOptions) { o.authOpts.ExposeVerificationToken = false })

		rec := srv.do(t, http.MethodPost, "/auth/register", registerBody("carol", "carol@example.com"))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "verification_token")
	})

	t.Run("reports the first violated rule", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/auth/register", registerBody("bo", "not-an-email"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, codeValidation, resp.ErrorCode)
		assert.Equal(t, map[string]string{"username": "Username must be at least 3 characters long"}, resp.Errors)
		assert.Equal(t, "Username must be at least 3 characters long", resp.Message)
	})

	t.Run("rejects taken emails and usernames", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/auth/register", registerBody("dave", "dave@example.com")).Code)

		rec := srv.do(t, http.MethodPost, "/auth/register", registerBody("david", "DAVE@example.com"))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "An account with this email already exists", decode[errorResponse](t, rec).Errors["email"])

		rec = srv.do(t, http.MethodPost, "/auth/register", registerBody("Dave", "other@example.com"))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "This username is already taken", decode[errorResponse](t, rec).Errors["username"])
	})

	t.Run("resend supersedes the earlier token", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		first := decode[registerResponse](t, srv.do(t, http.MethodPost, "/auth/register", registerBody("erin", "erin@example.com")))

		rec := srv.do(t, http.MethodPost, "/auth/resend-verification", map[string]string{"email": "erin@example.com"})
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		resent := decode[resendVerificationResponse](t, rec)
		assert.Equal(t, "sent", resent.Status)
		assert.NotEqual(t, first.VerificationToken, resent.VerificationToken)

		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/auth/verify-email", map[string]string{"token": first.VerificationToken}).Code)
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/auth/verify-email", map[string]string{"token": resent.VerificationToken}).Code)

		rec = srv.do(t, http.MethodPost, "/auth/resend-verification", map[string]string{"email": "erin@example.com"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed bodies are bad requests", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/auth/register", `{"username":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, codeBadRequest, resp.ErrorCode)
		assert.Equal(t, "invalid request body", resp.Message)

		rec = srv.do(t, http.MethodPost, "/auth/verify-email", map[string]string{})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "token is required", decode[errorResponse](t, rec).Errors["token"])
	})
}

func TestAuthHandler_LoginLogout(t *testing.T) {
	t.Parallel()

	t.Run("issues a lax http-only session cookie", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, func(o *serverOptions) { o.authOpts.SecureCookie = true })
		srv.signIn(t)

		rec := srv.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    strings.ToUpper(testEmail),
			"password": testPassword,
			"next":     "/calendar?month=2024-02",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[loginResponse](t, rec)
		assert.Equal(t, testUsername, resp.User.Username)
		assert.Equal(t, "/calendar?month=2024-02", resp.RedirectTo)

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, int(application.DefaultSessionTTL.Seconds()), cookie.MaxAge)
	})

	t.Run("sanitises the return path", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.signIn(t)

		for _, next := range []string{"https://evil.example/", "//evil.example", ""} {
			rec := srv.do(t, http.MethodPost, "/auth/login", map[string]string{"email": testEmail, "password": testPassword, "next": next})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "/", decode[loginResponse](t, rec).RedirectTo, "next=%q", next)
		}
	})

	t.Run("maps credential failures", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.signIn(t)
		require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/auth/register", registerBody("frank", "frank@example.com")).Code)

		cases := []struct {
			name   string
			body   map[string]string
			status int
			code   string
		}{
			{"wrong password", map[string]string{"email": testEmail, "password": "nope!!"}, http.StatusUnauthorized, codeInvalidCredentials},
			{"unknown email", map[string]string{"email": "nobody@example.com", "password": testPassword}, http.StatusUnauthorized, codeInvalidCredentials},
			{"unverified", map[string]string{"email": "frank@example.com", "password": "secret1"}, http.StatusUnauthorized, codeEmailNotVerified},
			{"missing fields", map[string]string{"email": testEmail}, http.StatusUnprocessableEntity, codeValidation},
		}
		for _, tc := range cases {
			rec := srv.do(t, http.MethodPost, "/auth/login", tc.body)
			assert.Equal(t, tc.status, rec.Code, tc.name)
			assert.Equal(t, tc.code, decode[errorResponse](t, rec).ErrorCode, tc.name)
			assert.Nil(t, sessionCookie(rec), tc.name)
		}
	})

	t.Run("me reflects the session until logout", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/auth/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user":null}`, rec.Body.String())

		token := srv.signIn(t)
		rec = srv.do(t, http.MethodGet, "/auth/me", nil, withToken(token))
		require.Equal(t, http.StatusOK, rec.Code)
		me := decode[currentUserResponse](t, rec)
		require.NotNil(t, me.User)
		assert.Equal(t, testEmail, me.User.Email)

		rec = srv.do(t, http.MethodPost, "/auth/logout", nil, withHeader("Cookie", SessionCookieName+"="+token))
		require.Equal(t, http.StatusNoContent, rec.Code)
		cleared := sessionCookie(rec)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
		assert.Empty(t, cleared.Value)

		rec = srv.do(t, http.MethodGet, "/auth/me", nil, withToken(token))
		assert.JSONEq(t, `{"user":null}`, rec.Body.String())

		assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/auth/logout", nil).Code)
	})
}

func TestExtractTokenFromRequest(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	assert.Empty(t, extractTokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", extractTokenFromRequest(req))

	req.Header.Set("Authorization", "bearer from-header")
	assert.Equal(t, "from-header", extractTokenFromRequest(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "from-cookie", extractTokenFromRequest(req))
}
