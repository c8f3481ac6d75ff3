package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/teamboard/internal/application"
)

type meetingService interface {
	List(ctx context.Context, date string) ([]application.Meeting, error)
	Get(ctx context.Context, id string) (application.Meeting, error)
	Create(ctx context.Context, input application.MeetingInput) (application.Meeting, error)
	Update(ctx context.Context, id string, patch application.MeetingPatch) (application.Meeting, error)
	Delete(ctx context.Context, id string) error
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	principal, _ := PrincipalFromContext(ctx)
	attrs = append(attrs, "principal_id", principal.UserID)
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// List handles GET /meetings with an optional ?date=YYYY-MM-DD.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	date := r.URL.Query().Get("date")
	logger := h.log(ctx, "List", "date", date)

	meetings, err := h.service.List(ctx, date)
	if err != nil {
		logger.ErrorContext(ctx, "meeting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(ctx, "meetings listed")
	h.responder.writeJSON(ctx, w, http.StatusOK, listMeetingsResponse{Meetings: toMeetingDTOs(meetings)})
}

// Get handles GET /meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	meeting, err := h.service.Get(ctx, id)
	if err != nil {
		h.log(ctx, "Get", "meeting_id", id).ErrorContext(ctx, "meeting lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

// Create handles POST /meetings. created_by defaults to the acting user.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req createMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Create", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode meeting", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	principal, _ := PrincipalFromContext(ctx)
	input := req.toInput()
	if strings.TrimSpace(input.CreatedBy) == "" {
		input.CreatedBy = principal.Username
	}

	logger := h.log(ctx, "Create")
	meeting, err := h.service.Create(ctx, input)
	if err != nil {
		logger.ErrorContext(ctx, "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("meeting_id", meeting.ID).InfoContext(ctx, "meeting created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

// Update handles PUT /meetings/{id}.
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req updateMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Update", "meeting_id", id, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode meeting update", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Update", "meeting_id", id)
	meeting, err := h.service.Update(ctx, id, req.toPatch())
	if err != nil {
		logger.ErrorContext(ctx, "meeting update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "meeting updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

// Delete handles DELETE /meetings/{id}.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := h.log(ctx, "Delete", "meeting_id", id)

	if err := h.service.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "meeting delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "meeting deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

type createMeetingRequest struct {
	Title           string   `json:"title" validate:"max=200"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,oneof=15 30 45 60 90 120"`
	ParticipantIDs  []string `json:"participant_ids" validate:"omitempty,dive,required"`
	Notes           string   `json:"notes" validate:"max=10000"`
	CreatedBy       string   `json:"created_by"`
}

func (r createMeetingRequest) toInput() application.MeetingInput {
	return application.MeetingInput{
		Title:           r.Title,
		Date:            r.Date,
		Time:            r.Time,
		DurationMinutes: r.DurationMinutes,
		ParticipantIDs:  r.ParticipantIDs,
		Notes:           r.Notes,
		CreatedBy:       r.CreatedBy,
	}
}

type updateMeetingRequest struct {
	Title           *string   `json:"title" validate:"omitempty,max=200"`
	Date            *string   `json:"date"`
	Time            *string   `json:"time"`
	DurationMinutes *int      `json:"duration_minutes" validate:"omitempty,oneof=15 30 45 60 90 120"`
	ParticipantIDs  *[]string `json:"participant_ids"`
	Notes           *string   `json:"notes" validate:"omitempty,max=10000"`
}

func (r updateMeetingRequest) toPatch() application.MeetingPatch {
	return application.MeetingPatch{
		Title:           r.Title,
		Date:            r.Date,
		Time:            r.Time,
		DurationMinutes: r.DurationMinutes,
		ParticipantIDs:  r.ParticipantIDs,
		Notes:           r.Notes,
	}
}

type meetingResponse struct {
	Meeting meetingDTO `json:"meeting"`
}

type listMeetingsResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

type meetingDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	ParticipantIDs  []string `json:"participant_ids"`
	Notes           string   `json:"notes,omitempty"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	participants := meeting.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return meetingDTO{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Date:            meeting.Date,
		Time:            meeting.Time,
		DurationMinutes: meeting.DurationMinutes,
		ParticipantIDs:  participants,
		Notes:           meeting.Notes,
		CreatedBy:       meeting.CreatedBy,
		CreatedAt:       formatTimestamp(meeting.CreatedAt),
		UpdatedAt:       formatTimestamp(meeting.UpdatedAt),
	}
}

func toMeetingDTOs(meetings []application.Meeting) []meetingDTO {
	out := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, toMeetingDTO(meeting))
	}
	return out
}
