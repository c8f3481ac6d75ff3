package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/teamboard/internal/application"
)

type teamMemberService interface {
	List(ctx context.Context) ([]application.TeamMember, error)
	Get(ctx context.Context, id string) (application.TeamMember, error)
	Create(ctx context.Context, input application.TeamMemberInput) (application.TeamMember, error)
	Update(ctx context.Context, id string, patch application.TeamMemberPatch) (application.TeamMember, error)
	Delete(ctx context.Context, id string) error
}

type TeamMemberHandler struct {
	service   teamMemberService
	responder responder
	logger    *slog.Logger
}

func NewTeamMemberHandler(service teamMemberService, logger *slog.Logger) *TeamMemberHandler {
	base := defaultLogger(logger)
	return &TeamMemberHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TeamMemberHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	principal, _ := PrincipalFromContext(ctx)
	attrs = append(attrs, "principal_id", principal.UserID)
	return handlerLogger(ctx, h.logger, "TeamMemberHandler", operation, attrs...)
}

func (h *TeamMemberHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *TeamMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "List")

	members, err := h.service.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "team member list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("result_count", len(members)).InfoContext(ctx, "team members listed")
	h.responder.writeJSON(ctx, w, http.StatusOK, listTeamMembersResponse{TeamMembers: toTeamMemberDTOs(members)})
}

func (h *TeamMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	member, err := h.service.Get(ctx, id)
	if err != nil {
		h.log(ctx, "Get", "member_id", id).ErrorContext(ctx, "team member lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, teamMemberResponse{TeamMember: toTeamMemberDTO(member)})
}

func (h *TeamMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req teamMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Create", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode team member", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Create")
	member, err := h.service.Create(ctx, application.TeamMemberInput{
		Name:         req.Name,
		Email:        req.Email,
		Availability: req.Availability.toAvailability(),
	})
	if err != nil {
		logger.ErrorContext(ctx, "team member creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("member_id", member.ID).InfoContext(ctx, "team member created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, teamMemberResponse{TeamMember: toTeamMemberDTO(member)})
}

func (h *TeamMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req updateTeamMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Update", "member_id", id, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode team member update", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	patch := application.TeamMemberPatch{Name: req.Name, Email: req.Email}
	if req.Availability != nil {
		availability := req.Availability.toAvailability()
		patch.Availability = &availability
	}

	logger := h.log(ctx, "Update", "member_id", id)
	member, err := h.service.Update(ctx, id, patch)
	if err != nil {
		logger.ErrorContext(ctx, "team member update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "team member updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, teamMemberResponse{TeamMember: toTeamMemberDTO(member)})
}

func (h *TeamMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := h.log(ctx, "Delete", "member_id", id)

	if err := h.service.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "team member delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "team member deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

type availabilityDTO struct {
	Status        string `json:"status"`
	Label         string `json:"label,omitempty"`
	NextAvailable string `json:"next_available,omitempty"`
}

func (a availabilityDTO) toAvailability() application.Availability {
	return application.Availability{
		Status:        application.AvailabilityStatus(a.Status),
		NextAvailable: a.NextAvailable,
	}
}

type teamMemberRequest struct {
	Name         string          `json:"name" validate:"max=200"`
	Email        string          `json:"email" validate:"max=254"`
	Availability availabilityDTO `json:"availability"`
}

type updateTeamMemberRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Email        *string          `json:"email" validate:"omitempty,max=254"`
	Availability *availabilityDTO `json:"availability"`
}

type teamMemberResponse struct {
	TeamMember teamMemberDTO `json:"team_member"`
}

type listTeamMembersResponse struct {
	TeamMembers []teamMemberDTO `json:"team_members"`
}

type teamMemberDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Availability availabilityDTO `json:"availability"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

func toTeamMemberDTO(member application.TeamMember) teamMemberDTO {
	status := member.Availability.Status.Normalize()
	return teamMemberDTO{
		ID:    member.ID,
		Name:  member.Name,
		Email: member.Email,
		Availability: availabilityDTO{
			Status:        string(status),
			Label:         status.Label(),
			NextAvailable: member.Availability.NextAvailable,
		},
		CreatedAt: formatTimestamp(member.CreatedAt),
		UpdatedAt: formatTimestamp(member.UpdatedAt),
	}
}

func toTeamMemberDTOs(members []application.TeamMember) []teamMemberDTO {
	out := make([]teamMemberDTO, 0, len(members))
	for _, member := range members {
		out = append(out, toTeamMemberDTO(member))
	}
	return out
}
