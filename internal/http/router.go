package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/teamboard/internal/application"
)

type RouterConfig struct {
	Auth        *AuthHandler
	Tasks       *TaskHandler
	Meetings    *MeetingHandler
	TeamMembers *TeamMemberHandler
	Views       *ViewHandler

	// Sessions resolves the user behind a session token for protected routes.
	Sessions application.CurrentUserResolver
	// LoginPath receives browser navigations that lack a session.
	LoginPath string
	// Health reports backing store health for GET /healthz.
	Health func(ctx context.Context) error

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(logger), middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, codeNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
	})

	r.Get("/healthz", healthHandler(cfg.Health, responder))

	if cfg.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)
			r.Get("/me", cfg.Auth.Me)
			r.Post("/verify-email", cfg.Auth.VerifyEmail)
			r.Post("/resend-verification", cfg.Auth.ResendVerification)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Sessions, cfg.LoginPath, logger))

		if cfg.Tasks != nil {
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", cfg.Tasks.List)
				r.Post("/", cfg.Tasks.Create)
				r.Get("/{id}", cfg.Tasks.Get)
				r.Put("/{id}", cfg.Tasks.Update)
				r.Delete("/{id}", cfg.Tasks.Delete)
				r.Post("/{id}/toggle", cfg.Tasks.Toggle)
			})
		}

		if cfg.Meetings != nil {
			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", cfg.Meetings.List)
				r.Post("/", cfg.Meetings.Create)
				r.Get("/{id}", cfg.Meetings.Get)
				r.Put("/{id}", cfg.Meetings.Update)
				r.Delete("/{id}", cfg.Meetings.Delete)
			})
		}

		if cfg.TeamMembers != nil {
			r.Route("/team-members", func(r chi.Router) {
				r.Get("/", cfg.TeamMembers.List)
				r.Post("/", cfg.TeamMembers.Create)
				r.Get("/{id}", cfg.TeamMembers.Get)
				r.Put("/{id}", cfg.TeamMembers.Update)
				r.Delete("/{id}", cfg.TeamMembers.Delete)
			})
		}

		if cfg.Views != nil {
			r.Get("/agenda/today", cfg.Views.Agenda)
			r.Get("/calendar", cfg.Views.Calendar)
			r.Get("/availability/heatmap", cfg.Views.Heatmap)
		}
	})

	return r
}

func healthHandler(check func(ctx context.Context) error, responder responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if check != nil {
			if err := check(ctx); err != nil {
				handlerLogger(ctx, responder.logger, "Health", "Check").ErrorContext(ctx, "health check failed", "error", err)
				responder.writeJSON(ctx, w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
