package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/teamboard/internal/application"
)

type agendaService interface {
	Today(ctx context.Context) (application.Agenda, error)
}

type calendarService interface {
	Now() time.Time
	View(ctx context.Context, cursor application.CalendarCursor) (application.CalendarView, error)
}

type heatmapService interface {
	Build(ctx context.Context, date string) (application.Heatmap, error)
}

// ViewHandler serves the derived read-only views: the today agenda, the
// meetings calendar and the availability heatmap.
type ViewHandler struct {
	agenda    agendaService
	calendar  calendarService
	heatmap   heatmapService
	responder responder
	logger    *slog.Logger
}

func NewViewHandler(agenda agendaService, calendar calendarService, heatmap heatmapService, logger *slog.Logger) *ViewHandler {
	base := defaultLogger(logger)
	return &ViewHandler{agenda: agenda, calendar: calendar, heatmap: heatmap, responder: newResponder(base), logger: base}
}

func (h *ViewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ViewHandler", operation, attrs...)
}

// Agenda handles GET /agenda/today.
func (h *ViewHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.agenda == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "Agenda")

	agenda, err := h.agenda.Today(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "agenda failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	items := make([]agendaItemDTO, 0, len(agenda.Items))
	for _, item := range agenda.Items {
		dto := agendaItemDTO{Kind: string(item.Kind), ID: item.ID, Title: item.Title, Date: item.Date, Time: item.Time}
		if item.Task != nil {
			task := toTaskDTO(*item.Task)
			dto.Task = &task
		}
		if item.Meeting != nil {
			meeting := toMeetingDTO(*item.Meeting)
			dto.Meeting = &meeting
		}
		items = append(items, dto)
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, agendaResponse{Date: agenda.Date, Items: items})
}

// Calendar handles GET /calendar?month=YYYY-MM&selected=YYYY-MM-DD. Both
// parameters default to today.
func (h *ViewHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.calendar == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	query := r.URL.Query()
	month := strings.TrimSpace(query.Get("month"))
	selected := strings.TrimSpace(query.Get("selected"))
	logger := h.log(ctx, "Calendar", "month", month, "selected", selected)

	cursor := application.NewCalendarCursor(h.calendar.Now())
	if month != "" {
		first, err := application.ParseMonth(month)
		if err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
		cursor = application.CursorAt(first, cursor.Selected())
	}
	if selected != "" {
		var err error
		if cursor, err = cursor.Select(selected); err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
	}

	view, err := h.calendar.View(ctx, cursor)
	if err != nil {
		logger.ErrorContext(ctx, "calendar failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	cells := make([]calendarCellDTO, 0, len(view.Grid.Cells))
	for _, cell := range view.Grid.Cells {
		cells = append(cells, calendarCellDTO{
			Placeholder:  cell.Placeholder,
			Day:          cell.Day,
			Date:         cell.Date,
			MeetingCount: cell.MeetingCount,
			Selected:     cell.Selected,
			Today:        cell.Today,
		})
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, calendarResponse{
		Month:            view.Grid.Label(),
		LeadingBlanks:    view.Grid.LeadingBlanks,
		Cells:            cells,
		Selected:         view.Selected,
		SelectedMeetings: toMeetingDTOs(view.SelectedMeetings),
		Previous:         view.Previous,
		Next:             view.Next,
		Today:            view.Today,
	})
}

// Heatmap handles GET /availability/heatmap?date=YYYY-MM-DD.
func (h *ViewHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.heatmap == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	date := r.URL.Query().Get("date")
	logger := h.log(ctx, "Heatmap", "date", date)

	heatmap, err := h.heatmap.Build(ctx, date)
	if err != nil {
		logger.ErrorContext(ctx, "heatmap failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	rows := make([]heatmapRowDTO, 0, len(heatmap.Rows))
	for _, row := range heatmap.Rows {
		cells := make([]heatmapCellDTO, 0, len(row.Cells))
		for _, status := range row.Cells {
			cells = append(cells, heatmapCellDTO{Status: string(status), Label: status.Label()})
		}
		rows = append(rows, heatmapRowDTO{MemberID: row.MemberID, Label: row.Label, Cells: cells})
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, heatmapResponse{Date: heatmap.Date, Slots: heatmap.Slots, Rows: rows})
}

type agendaResponse struct {
	Date  string          `json:"date"`
	Items []agendaItemDTO `json:"items"`
}

type agendaItemDTO struct {
	Kind    string      `json:"kind"`
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Date    string      `json:"date"`
	Time    string      `json:"time,omitempty"`
	Task    *taskDTO    `json:"task,omitempty"`
	Meeting *meetingDTO `json:"meeting,omitempty"`
}

type calendarResponse struct {
	Month            string            `json:"month"`
	LeadingBlanks    int               `json:"leading_blanks"`
	Cells            []calendarCellDTO `json:"cells"`
	Selected         string            `json:"selected"`
	SelectedMeetings []meetingDTO      `json:"selected_meetings"`
	Previous         string            `json:"previous"`
	Next             string            `json:"next"`
	Today            string            `json:"today"`
}

type calendarCellDTO struct {
	Placeholder  bool   `json:"placeholder"`
	Day          int    `json:"day,omitempty"`
	Date         string `json:"date,omitempty"`
	MeetingCount int    `json:"meeting_count"`
	Selected     bool   `json:"selected"`
	Today        bool   `json:"today"`
}

type heatmapResponse struct {
	Date  string          `json:"date"`
	Slots []string        `json:"slots"`
	Rows  []heatmapRowDTO `json:"rows"`
}

type heatmapRowDTO struct {
	MemberID string           `json:"member_id"`
	Label    string           `json:"label"`
	Cells    []heatmapCellDTO `json:"cells"`
}

type heatmapCellDTO struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}
