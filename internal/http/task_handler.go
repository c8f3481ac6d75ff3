package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/teamboard/internal/application"
)

type taskService interface {
	List(ctx context.Context, filter application.TaskFilter) ([]application.Task, error)
	Get(ctx context.Context, id string) (application.Task, error)
	Create(ctx context.Context, input application.TaskInput) (application.Task, error)
	Update(ctx context.Context, id string, patch application.TaskPatch) (application.Task, error)
	ToggleCompleted(ctx context.Context, id string) (application.Task, error)
	Delete(ctx context.Context, id string) error
}

type TaskHandler struct {
	service   taskService
	responder responder
	logger    *slog.Logger
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	principal, _ := PrincipalFromContext(ctx)
	attrs = append(attrs, "principal_id", principal.UserID)
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

func (h *TaskHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// List handles GET /tasks?filter=all|pending|completed.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	filter := application.TaskFilter(r.URL.Query().Get("filter"))
	logger := h.log(ctx, "List", "filter", string(filter))

	tasks, err := h.service.List(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "task list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("result_count", len(tasks)).InfoContext(ctx, "tasks listed")
	h.responder.writeJSON(ctx, w, http.StatusOK, listTasksResponse{Tasks: toTaskDTOs(tasks)})
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := h.log(ctx, "Get", "task_id", id)

	task, err := h.service.Get(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "task lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Create", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode task", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Create")
	task, err := h.service.Create(ctx, req.toInput())
	if err != nil {
		logger.ErrorContext(ctx, "task creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("task_id", task.ID).InfoContext(ctx, "task created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, taskResponse{Task: toTaskDTO(task)})
}

// Update handles PUT /tasks/{id}. Absent fields are left unchanged.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Update", "task_id", id, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode task update", "error", err)
		h.responder.rejectBody(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Update", "task_id", id)
	task, err := h.service.Update(ctx, id, req.toPatch())
	if err != nil {
		logger.ErrorContext(ctx, "task update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "task updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

// Toggle handles POST /tasks/{id}/toggle.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := h.log(ctx, "Toggle", "task_id", id)

	task, err := h.service.ToggleCompleted(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "task toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "task toggled", "completed", task.Completed)
	h.responder.writeJSON(ctx, w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := h.log(ctx, "Delete", "task_id", id)

	if err := h.service.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "task delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "task deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Category    string `json:"category" validate:"omitempty,oneof=Personal Team Client"`
}

func (r createTaskRequest) toInput() application.TaskInput {
	return application.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Category:    application.TaskCategory(r.Category),
	}
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Category    *string `json:"category" validate:"omitempty,oneof=Personal Team Client"`
	Completed   *bool   `json:"completed"`
}

func (r updateTaskRequest) toPatch() application.TaskPatch {
	patch := application.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Completed:   r.Completed,
	}
	if r.Category != nil {
		category := application.TaskCategory(*r.Category)
		patch.Category = &category
	}
	return patch
}

type taskResponse struct {
	Task taskDTO `json:"task"`
}

type listTasksResponse struct {
	Tasks []taskDTO `json:"tasks"`
}

type taskDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date,omitempty"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toTaskDTO(task application.Task) taskDTO {
	return taskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Category:    string(task.Category),
		Completed:   task.Completed,
		CreatedAt:   formatTimestamp(task.CreatedAt),
		UpdatedAt:   formatTimestamp(task.UpdatedAt),
	}
}

func toTaskDTOs(tasks []application.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}
