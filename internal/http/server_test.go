package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/storage"
	"github.com/example/teamboard/internal/testfixtures"
)

const (
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "password"
)

type testServer struct {
	handler http.Handler
	factory *testfixtures.ServiceFactory
	auth    *application.AuthService
}

type serverOptions struct {
	authOpts AuthOptions
	health   func(ctx context.Context) error
}

func newTestServer(t *testing.T, opts ...func(*serverOptions)) *testServer {
	t.Helper()

	cfg := serverOptions{authOpts: AuthOptions{ExposeVerificationToken: true}}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := testfixtures.NewServiceFactory()
	auth := factory.NewAuthService(testfixtures.AuthOptions{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	health := cfg.health
	if health == nil {
		health = func(ctx context.Context) error { return storage.Ping(ctx, factory.Store) }
	}

	handler := NewRouter(RouterConfig{
		Auth:        NewAuthHandler(auth, cfg.authOpts, logger),
		Tasks:       NewTaskHandler(factory.NewTaskService(), logger),
		Meetings:    NewMeetingHandler(factory.NewMeetingService(), logger),
		TeamMembers: NewTeamMemberHandler(factory.NewTeamMemberService(), logger),
		Views: NewViewHandler(
			factory.NewAgendaService(),
			factory.NewCalendarService(),
			factory.NewHeatmapService(application.HeatmapModeMeetings),
			logger,
		),
		Sessions:  auth,
		LoginPath: application.DefaultLoginPath,
		Health:    health,
		Logger:    logger,
	})

	return &testServer{handler: handler, factory: factory, auth: auth}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// signIn provisions a verified account and returns a live session token.
func (s *testServer) signIn(t *testing.T) string {
	t.Helper()

	_, _, err := s.auth.ProvisionUser(context.Background(), application.ProvisionUserParams{
		Username: testUsername,
		Email:    testEmail,
		Password: testPassword,
		Verified: true,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[loginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	return nil
}
