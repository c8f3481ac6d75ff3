package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/teamboard/internal/application"
)

var (
	errBadRequestBody = errors.New("invalid request body")
	errMissingSession = errors.New("authentication required")
)

const (
	codeBadRequest         = "BAD_REQUEST"
	codeValidation         = "VALIDATION_FAILED"
	codeNotFound           = "NOT_FOUND"
	codeConflict           = "CONFLICT"
	codeAuthRequired       = "AUTH_REQUIRED"
	codeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	codeEmailNotVerified   = "AUTH_EMAIL_NOT_VERIFIED"
	codeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	codeInternal           = "INTERNAL_ERROR"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleServiceError maps application errors onto status codes. Storage and
// other unexpected failures never leak their message to the client.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, nil)
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, validationResponse(vErr))
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: codeInvalidCredentials, Message: "invalid email or password"})
	case errors.Is(err, application.ErrEmailNotVerified):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: codeEmailNotVerified, Message: "email not verified"})
	case errors.Is(err, application.ErrUnauthorized), errors.Is(err, application.ErrAuthentication):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: codeAuthRequired, Message: statusMessage(http.StatusUnauthorized)})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: codeNotFound, Message: notFoundMessage(err)})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, conflictResponse(err))
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, nil)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func validationResponse(vErr *application.ValidationError) errorResponse {
	resp := errorResponse{ErrorCode: codeValidation, Message: statusMessage(http.StatusUnprocessableEntity)}
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return resp
	}
	resp.Errors = make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		resp.Errors[field] = msg
		if len(vErr.FieldErrors) == 1 {
			resp.Message = msg
		}
	}
	return resp
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidVerificationToken):
		return "invalid or expired verification token"
	case errors.Is(err, application.ErrUserNotFound):
		return "user not found"
	}
	return statusMessage(http.StatusNotFound)
}

func conflictResponse(err error) errorResponse {
	switch {
	case errors.Is(err, application.ErrEmailTaken):
		msg := "An account with this email already exists"
		return errorResponse{ErrorCode: codeConflict, Message: msg, Errors: map[string]string{"email": msg}}
	case errors.Is(err, application.ErrUsernameTaken):
		msg := "This username is already taken"
		return errorResponse{ErrorCode: codeConflict, Message: msg, Errors: map[string]string{"username": msg}}
	case errors.Is(err, application.ErrAlreadyVerified):
		return errorResponse{ErrorCode: codeConflict, Message: "email is already verified"}
	}
	return errorResponse{ErrorCode: codeConflict, Message: statusMessage(http.StatusConflict)}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request could not be understood"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusMethodNotAllowed:
		return "method not allowed"
	case http.StatusConflict:
		return "the request conflicts with the current state of the resource"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
