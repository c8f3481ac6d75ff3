package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/example/teamboard/internal/application"
	httptransport "github.com/example/teamboard/internal/http"
	"github.com/example/teamboard/internal/maintenance"
	"github.com/example/teamboard/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func (a *app) router() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth: httptransport.NewAuthHandler(a.auth, httptransport.AuthOptions{
			SecureCookie:            a.cfg.CookieSecure,
			ExposeVerificationToken: a.cfg.ExposeVerificationToken,
		}, a.logger),
		Tasks:       httptransport.NewTaskHandler(a.tasks, a.logger),
		Meetings:    httptransport.NewMeetingHandler(a.meetings, a.logger),
		TeamMembers: httptransport.NewTeamMemberHandler(a.members, a.logger),
		Views:       httptransport.NewViewHandler(a.agenda, a.calendar, a.heatmap, a.logger),
		Sessions:    a.auth,
		LoginPath:   application.DefaultLoginPath,
		Health: func(ctx context.Context) error {
			return storage.Ping(ctx, a.store)
		},
		Logger: a.logger,
	})
}

func (a *app) newServer() *http.Server {
	return &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs the API and the credential sweeper until ctx is cancelled.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	sweeper, err := maintenance.NewSweeper(a.auth, a.cfg.SweepSchedule, a.logger)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	server := a.newServer()
	return runServer(ctx, server, ln, a.logger)
}

func runServer(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.Info("teamboard API listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		logger.Error("failed to shutdown server", "error", err)
		return err
	}
	logger.Info("teamboard API stopped")
	return nil
}
