package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/config"
	"github.com/example/teamboard/internal/logging"
	"github.com/example/teamboard/internal/render"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "teamboard",
		Short:        "teamboard - tasks, meetings and team availability",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "read environment variables from this file instead of .env")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log service activity to stderr in terminal commands")

	root.AddCommand(
		newServeCommand(opts),
		newAgendaCommand(opts),
		newCalendarCommand(opts),
		newHeatmapCommand(opts),
		newNotesCommand(opts),
	)
	return root
}

func loadConfig(envFile string) (config.Config, error) {
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load()
}

// withApp loads configuration, wires the services and runs fn. Terminal
// commands log at warn unless --verbose is given; serve uses the configured level.
func withApp(cmd *cobra.Command, opts *rootOptions, quiet bool, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if quiet && !opts.verbose {
		level = "warn"
	}
	logger, err := logging.New(cfg.LogFormat, level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := logging.ContextWithLogger(cmd.Context(), logger)
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withApp(cmd, opts, false, func(ctx context.Context, a *app) error {
				ln, err := net.Listen("tcp", a.cfg.Addr())
				if err != nil {
					return fmt.Errorf("failed to listen on %s: %w", a.cfg.Addr(), err)
				}
				return a.serve(ctx, ln)
			})
		},
	}
}

func newAgendaCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agenda",
		Short: "Print today's tasks and meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, a *app) error {
				agenda, err := a.agenda.Today(ctx)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Agenda(agenda))
				return err
			})
		},
	}
}

func newCalendarCommand(opts *rootOptions) *cobra.Command {
	var month, selected string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the meetings calendar for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, a *app) error {
				cursor, err := calendarCursor(a.calendar.Now(), month, selected)
				if err != nil {
					return err
				}
				view, err := a.calendar.View(ctx, cursor)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Calendar(view))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&selected, "selected", "", "day whose meetings are listed (YYYY-MM-DD)")
	return cmd
}

// calendarCursor positions the cursor on month, keeping today's selection
// unless selected is given.
func calendarCursor(now time.Time, month, selected string) (application.CalendarCursor, error) {
	cursor := application.NewCalendarCursor(now)
	if month != "" {
		first, err := application.ParseMonth(month)
		if err != nil {
			return cursor, err
		}
		cursor = application.CursorAt(first, cursor.Selected())
	}
	if selected != "" {
		return cursor.Select(selected)
	}
	return cursor, nil
}

func newHeatmapCommand(opts *rootOptions) *cobra.Command {
	var date, source string
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print the team availability heatmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, a *app) error {
				service := a.heatmap
				if source != "" {
					if source != string(application.HeatmapModeMeetings) && source != string(application.HeatmapModeDemo) {
						return fmt.Errorf("unknown heatmap source %q", source)
					}
					service = application.NewHeatmapService(a.members, a.meetings, application.HeatmapMode(source), application.ServiceOptions{
						Location: a.cfg.Location,
						Logger:   a.logger,
					})
				}
				heatmap, err := service.Build(ctx, date)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Heatmap(heatmap))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to evaluate (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&source, "source", "", "availability source: meetings or demo")
	return cmd
}

func newNotesCommand(opts *rootOptions) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "notes <meeting-id>",
		Short: "Print a meeting with its notes rendered as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, a *app) error {
				meeting, err := a.meetings.Get(ctx, args[0])
				if err != nil {
					return err
				}
				names, err := memberNames(ctx, a.members)
				if err != nil {
					return err
				}
				out, err := render.New(cmd.OutOrStdout(), render.WithWidth(width)).MeetingNotes(meeting, names)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")
	return cmd
}

func memberNames(ctx context.Context, members application.MemberLister) (map[string]string, error) {
	list, err := members.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, m := range list {
		names[m.ID] = m.Name
	}
	return names, nil
}
