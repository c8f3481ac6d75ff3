// Package maintenance runs periodic housekeeping for the teamboard service.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/teamboard/internal/application"
)

// DefaultSchedule prunes credentials every quarter hour.
const DefaultSchedule = "@every 15m"

// defaultSweepTimeout bounds a single sweep.
const defaultSweepTimeout = time.Minute

// Pruner deletes expired sessions and verification tokens.
type Pruner interface {
	PruneExpired(ctx context.Context) (application.PruneResult, error)
}

// Sweeper invokes a Pruner on a cron schedule. Overlapping runs are skipped.
type Sweeper struct {
	pruner   Pruner
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
	runs    int
	last    application.PruneResult
}

// NewSweeper validates schedule (standard five field cron syntax or an
// @-descriptor such as "@every 15m") and prepares a stopped sweeper.
func NewSweeper(pruner Pruner, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if pruner == nil {
		return nil, errors.New("maintenance: pruner is required")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("maintenance: invalid schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sweeper")

	cronLogger := slogCronLogger{logger: logger}
	return &Sweeper{
		pruner:   pruner,
		schedule: schedule,
		timeout:  defaultSweepTimeout,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}, nil
}

// Schedule returns the cron expression the sweeper runs on.
func (s *Sweeper) Schedule() string { return s.schedule }

// Sweep prunes once, synchronously.
func (s *Sweeper) Sweep(ctx context.Context) (result application.PruneResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err = s.pruner.PruneExpired(ctx)

	s.mu.Lock()
	s.runs++
	if err == nil {
		s.last = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "sweep failed", "error", err, "error_kind", application.ErrorKind(err))
		return
	}
	s.logger.InfoContext(ctx, "sweep completed",
		"sessions", result.Sessions,
		"tokens", result.Tokens,
		"duration", time.Since(start),
	)
	return
}

// Runs reports how many sweeps have executed and the last successful result.
func (s *Sweeper) Runs() (int, application.PruneResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.last
}

// Start schedules the sweep and returns immediately. The sweeper stops when
// ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("maintenance: sweeper already started")
	}

	id, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("maintenance: schedule sweep: %w", err)
	}
	s.entry = id
	s.started = true
	s.cron.Start()
	s.logger.InfoContext(ctx, "sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.cron.Remove(s.entry)
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
