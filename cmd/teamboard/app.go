package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/config"
	"github.com/example/teamboard/internal/persistence"
	"github.com/example/teamboard/internal/persistence/seed"
	"github.com/example/teamboard/internal/storage"
)

// app holds the wired services shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  persistence.Store

	auth     *application.AuthService
	tasks    *application.TaskService
	meetings *application.MeetingService
	members  *application.TeamMemberService
	agenda   *application.AgendaService
	calendar *application.CalendarService
	heatmap  *application.HeatmapService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	backend, err := storage.ParseBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, storage.Options{Backend: backend, SQLiteDSN: cfg.SQLiteDSN, Logger: logger})
	if err != nil {
		return nil, err
	}

	now := time.Now
	var latency *application.Latency
	if cfg.Latency == "demo" {
		latency = application.DemoLatency()
	}

	repos := storage.NewRepositories(store, now)
	opts := application.ServiceOptions{
		IDGenerator: application.NewID,
		Now:         now,
		Location:    cfg.Location,
		Latency:     latency,
		Logger:      logger,
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	a.auth = application.NewAuthService(application.AuthServiceDeps{
		Users:           repos.Users,
		Sessions:        repos.Sessions,
		Tokens:          repos.Tokens,
		IDGenerator:     application.NewID,
		TokenGenerator:  application.NewToken,
		Now:             now,
		SessionTTL:      cfg.SessionTTL,
		VerificationTTL: cfg.VerificationTTL,
		Latency:         latency,
		Logger:          logger,
	})
	a.tasks = application.NewTaskService(repos.Tasks, opts)
	a.meetings = application.NewMeetingService(repos.Meetings, opts)
	a.members = application.NewTeamMemberService(repos.Members, opts)
	a.agenda = application.NewAgendaService(a.tasks, a.meetings, opts)
	a.calendar = application.NewCalendarService(a.meetings, opts)
	a.heatmap = application.NewHeatmapService(a.members, a.meetings, application.HeatmapMode(cfg.HeatmapSource), opts)

	if cfg.Seed {
		if err := a.seed(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return a, nil
}

// seed installs the fixture collections and the demo account. Both steps
// skip data that already exists.
func (a *app) seed(ctx context.Context) error {
	if _, err := seed.Load(ctx, a.store, time.Now(), a.cfg.Location, a.logger); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	if _, _, err := a.auth.ProvisionUser(ctx, application.ProvisionUserParams{
		Username: seed.DemoUsername,
		Email:    seed.DemoEmail,
		Password: seed.DemoPassword,
		Verified: true,
	}); err != nil {
		return fmt.Errorf("failed to provision demo account: %w", err)
	}
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}
