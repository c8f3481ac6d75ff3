package application

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// AgendaItemKind tags an agenda entry with its source collection.
type AgendaItemKind string

const (
	AgendaItemTask    AgendaItemKind = "task"
	AgendaItemMeeting AgendaItemKind = "meeting"
)

// AgendaItem is one row of the today view. Exactly one of Task and Meeting is set.
type AgendaItem struct {
	Kind  AgendaItemKind
	ID    string
	Title string
	Date  string
	// Time is the meeting start in ClockLayout. Tasks carry no clock time.
	Time    string
	Task    *Task
	Meeting *Meeting
}

// Agenda is the merged list of tasks due and meetings held on Date.
type Agenda struct {
	Date  string
	Items []AgendaItem
}

// BuildAgenda keeps the tasks due on date and the meetings held on date and
// merges them. Timed entries come first in ascending time order; entries
// without a time follow, meetings ahead of tasks. Ties keep input order.
func BuildAgenda(tasks []Task, meetings []Meeting, date string) []AgendaItem {
	items := make([]AgendaItem, 0)
	for i := range meetings {
		if meetings[i].Date != date {
			continue
		}
		m := meetings[i]
		m.ParticipantIDs = cloneStrings(m.ParticipantIDs)
		items = append(items, AgendaItem{
			Kind:    AgendaItemMeeting,
			ID:      m.ID,
			Title:   m.Title,
			Date:    m.Date,
			Time:    m.Time,
			Meeting: &m,
		})
	}
	for i := range tasks {
		if tasks[i].DueDate != date {
			continue
		}
		t := tasks[i]
		items = append(items, AgendaItem{
			Kind:  AgendaItemTask,
			ID:    t.ID,
			Title: t.Title,
			Date:  t.DueDate,
			Task:  &t,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return agendaLess(items[i], items[j])
	})
	return items
}

func agendaLess(a, b AgendaItem) bool {
	aTimed, bTimed := a.Time != "", b.Time != ""
	switch {
	case aTimed && bTimed:
		return a.Time < b.Time
	case aTimed != bTimed:
		return aTimed
	default:
		return a.Kind == AgendaItemMeeting && b.Kind == AgendaItemTask
	}
}

// TaskLister is the slice of TaskService used by the agenda.
type TaskLister interface {
	List(ctx context.Context, filter TaskFilter) ([]Task, error)
}

// MeetingLister is the slice of MeetingService used by the agenda and calendar.
type MeetingLister interface {
	List(ctx context.Context, date string) ([]Meeting, error)
}

// AgendaService assembles the today view from the task and meeting services.
type AgendaService struct {
	tasks    TaskLister
	meetings MeetingLister
	opts     ServiceOptions
}

// NewAgendaService constructs an agenda service.
func NewAgendaService(tasks TaskLister, meetings MeetingLister, opts ServiceOptions) *AgendaService {
	return &AgendaService{tasks: tasks, meetings: meetings, opts: opts.withDefaults()}
}

// Today fetches tasks and meetings concurrently and merges those falling on
// the current local date. If either fetch fails the other is cancelled.
func (s *AgendaService) Today(ctx context.Context) (agenda Agenda, err error) {
	if s == nil || s.tasks == nil || s.meetings == nil {
		err = fmt.Errorf("AgendaService is not configured")
		return
	}

	date := today(s.opts.Now, s.opts.Location)
	logger := serviceLogger(ctx, s.opts.Logger, "AgendaService", "Today", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build agenda", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "agenda built", "items", len(agenda.Items))
	}()

	var (
		tasks    []Task
		meetings []Meeting
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var fetchErr error
		tasks, fetchErr = s.tasks.List(groupCtx, TaskFilterAll)
		return fetchErr
	})
	group.Go(func() error {
		var fetchErr error
		meetings, fetchErr = s.meetings.List(groupCtx, "")
		return fetchErr
	})
	if err = group.Wait(); err != nil {
		return
	}

	agenda = Agenda{Date: date, Items: BuildAgenda(tasks, meetings, date)}
	return
}
