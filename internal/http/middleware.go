package http

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/teamboard/internal/application"
)

// RequireSession gates the wrapped handler behind a live session. Each request
// resolves a fresh RouteGuard for its destination. Browser navigations that
// settle unauthenticated are redirected to loginPath with the destination in
// ?next=; every other client receives 401.
func RequireSession(resolver application.CurrentUserResolver, loginPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := extractTokenFromRequest(r)
			guard := application.NewRouteGuard(r.URL.RequestURI())

			state, err := guard.Check(ctx, resolver, token)
			if err != nil {
				handlerLogger(ctx, logger, "RequireSession", "Check", "token_provided", token != "").
					ErrorContext(ctx, "session lookup failed", "error", err, "error_kind", application.ErrorKind(err))
			}

			if state != application.GuardAuthenticated {
				if location, ok := guard.Redirect(loginPath); ok && wantsHTML(r) {
					http.Redirect(w, r, location, http.StatusSeeOther)
					return
				}
				responder.writeError(ctx, w, http.StatusUnauthorized, codeAuthRequired, errMissingSession)
				return
			}

			user := guard.User()
			ctx = ContextWithPrincipal(ctx, application.Principal{UserID: user.ID, Username: user.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// wantsHTML reports whether the client prefers an HTML page, i.e. it is a
// browser navigation rather than an API call.
func wantsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == "text/html" {
			return true
		}
	}
	return false
}

// RequestLogger attaches a request scoped logger carrying the chi request id
// and logs the start and completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.InfoContext(ctx, "request completed",
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
