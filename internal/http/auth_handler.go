package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/teamboard/internal/application"
)

// SessionCookieName carries the opaque session token.
const SessionCookieName = "session_token"

type authService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.RegisterResult, error)
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (application.User, bool, error)
	VerifyEmail(ctx context.Context, token string) (application.User, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	SessionTTL() time.Duration
}

// AuthOptions tunes the auth endpoints.
type AuthOptions struct {
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool
	// ExposeVerificationToken echoes issued verification tokens in responses,
	// standing in for the email a production deployment would send.
	ExposeVerificationToken bool
}

type AuthHandler struct {
	service   authService
	opts      AuthOptions
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, opts AuthOptions, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, opts: opts, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Register", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode registration", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Register", "email", strings.ToLower(strings.TrimSpace(req.Email)))
	result, err := h.service.Register(ctx, application.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		logger.ErrorContext(ctx, "registration rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	resp := registerResponse{User: toUserDTO(result.User)}
	if h.opts.ExposeVerificationToken {
		resp.VerificationToken = result.VerificationToken
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Login", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode login", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Login", "email", strings.ToLower(strings.TrimSpace(req.Email)))
	result, err := h.service.Login(ctx, application.LoginParams{Email: req.Email, Password: req.Password})
	if err != nil {
		logger.ErrorContext(ctx, "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.setSessionCookie(w, result.Session.Token)
	logger.With("user_id", result.User.ID).InfoContext(ctx, "user logged in")

	h.responder.writeJSON(ctx, w, http.StatusOK, loginResponse{
		User:       toUserDTO(result.User),
		Token:      result.Session.Token,
		ExpiresAt:  formatTimestamp(result.Session.ExpiresAt),
		RedirectTo: application.SafeReturnPath(req.Next),
	})
}

// Logout handles POST /auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	token := extractTokenFromRequest(r)
	logger := h.log(ctx, "Logout", "token_provided", token != "")

	if err := h.service.Logout(ctx, token); err != nil {
		logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.clearSessionCookie(w)
	logger.InfoContext(ctx, "session cleared")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// Me handles GET /auth/me. Anonymous callers get {"user": null}.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	token := extractTokenFromRequest(r)
	logger := h.log(ctx, "Me", "token_provided", token != "")

	user, ok, err := h.service.CurrentUser(ctx, token)
	if err != nil {
		logger.ErrorContext(ctx, "current user lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := currentUserResponse{}
	if ok {
		dto := toUserDTO(user)
		resp.User = &dto
	}
	logger.InfoContext(ctx, "current user served", "authenticated", ok)
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

// VerifyEmail handles POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req verifyEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "VerifyEmail", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode verification", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "VerifyEmail", "token_provided", true)
	user, err := h.service.VerifyEmail(ctx, req.Token)
	if err != nil {
		logger.ErrorContext(ctx, "verification rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(ctx, "email verified")
	h.responder.writeJSON(ctx, w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// ResendVerification handles POST /auth/resend-verification.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req resendVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "ResendVerification", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode resend", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "ResendVerification", "email", strings.ToLower(strings.TrimSpace(req.Email)))
	token, err := h.service.ResendVerification(ctx, req.Email)
	if err != nil {
		logger.ErrorContext(ctx, "resend rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "verification resent")
	resp := resendVerificationResponse{Status: "sent"}
	if h.opts.ExposeVerificationToken {
		resp.VerificationToken = token
	}
	h.responder.writeJSON(ctx, w, http.StatusAccepted, resp)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// extractTokenFromRequest prefers a bearer token over the session cookie.
func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

type registerRequest struct {
	Username        string `json:"username" validate:"max=64"`
	Email           string `json:"email" validate:"max=254"`
	Password        string `json:"password" validate:"max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"max=256"`
}

type registerResponse struct {
	User              userDTO `json:"user"`
	VerificationToken string  `json:"verification_token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

type loginResponse struct {
	User       userDTO `json:"user"`
	Token      string  `json:"token"`
	ExpiresAt  string  `json:"expires_at"`
	RedirectTo string  `json:"redirect_to"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resendVerificationResponse struct {
	Status            string `json:"status"`
	VerificationToken string `json:"verification_token,omitempty"`
}

type currentUserResponse struct {
	User *userDTO `json:"user"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type userDTO struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		CreatedAt:     formatTimestamp(user.CreatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
