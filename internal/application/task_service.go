package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const minTaskTitleLength = 3

// TaskService validates and persists tasks.
type TaskService struct {
	tasks TaskRepository
	opts  ServiceOptions
}

// NewTaskService constructs a task service over the given repository.
func NewTaskService(tasks TaskRepository, opts ServiceOptions) *TaskService {
	return &TaskService{tasks: tasks, opts: opts.withDefaults()}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.Logger, "TaskService", operation, attrs...)
}

func (s *TaskService) ready() error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}
	return nil
}

func validateTaskTitle(title string, vErr *ValidationError) {
	switch {
	case title == "":
		vErr.add("title", "Task title is required")
	case len([]rune(title)) < minTaskTitleLength:
		vErr.add("title", "Task title must be at least 3 characters long")
	}
}

func validateDueDate(dueDate, today string, vErr *ValidationError) {
	if dueDate == "" {
		return
	}
	if _, err := time.Parse(DateLayout, dueDate); err != nil {
		vErr.add("due_date", "Due date must be a valid date (YYYY-MM-DD)")
		return
	}
	// Both sides are zero padded ISO dates, so string order is calendar order.
	if dueDate < today {
		vErr.add("due_date", "Due date cannot be in the past")
	}
}

func validateCategory(category TaskCategory, vErr *ValidationError) {
	if !category.Valid() {
		vErr.add("category", "Category must be one of Personal, Team, Client")
	}
}

// List returns the tasks matching filter. An empty filter means all tasks.
func (s *TaskService) List(ctx context.Context, filter TaskFilter) (tasks []Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "List", "filter", string(filter))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list tasks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "tasks listed", "count", len(tasks))
	}()

	if err = s.opts.Latency.Wait(ctx, OpTaskList); err != nil {
		return
	}

	var all []Task
	all, err = s.tasks.List(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	tasks, err = FilterTasks(all, filter)
	return
}

// FilterTasks narrows tasks by completion state.
func FilterTasks(tasks []Task, filter TaskFilter) ([]Task, error) {
	switch filter {
	case "", TaskFilterAll:
		return tasks, nil
	case TaskFilterPending, TaskFilterCompleted:
		wantCompleted := filter == TaskFilterCompleted
		out := make([]Task, 0, len(tasks))
		for _, task := range tasks {
			if task.Completed == wantCompleted {
				out = append(out, task)
			}
		}
		return out, nil
	}
	return nil, NewValidationError("filter", "Filter must be one of all, pending, completed")
}

// Get returns a single task.
func (s *TaskService) Get(ctx context.Context, id string) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Get", "task_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load task", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = s.opts.Latency.Wait(ctx, OpTaskGet); err != nil {
		return
	}
	task, err = s.tasks.Get(ctx, id)
	err = mapRepoError(err)
	return
}

// Create validates input and stores a new, incomplete task.
func (s *TaskService) Create(ctx context.Context, input TaskInput) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID).InfoContext(ctx, "task created")
	}()

	if err = s.opts.Latency.Wait(ctx, OpTaskCreate); err != nil {
		return
	}

	title := strings.TrimSpace(input.Title)
	dueDate := strings.TrimSpace(input.DueDate)
	category := input.Category
	if category == "" {
		category = TaskCategoryPersonal
	}

	vErr := &ValidationError{}
	validateTaskTitle(title, vErr)
	validateDueDate(dueDate, today(s.opts.Now, s.opts.Location), vErr)
	validateCategory(category, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.opts.Now()
	task, err = s.tasks.Create(ctx, Task{
		ID:          s.opts.IDGenerator(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     dueDate,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	err = mapRepoError(err)
	return
}

// Update merges patch into the stored task. Provided fields are validated with
// the create rules; an unchanged due date is not re-checked against today.
func (s *TaskService) Update(ctx context.Context, id string, patch TaskPatch) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Update", "task_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task updated")
	}()

	if err = s.opts.Latency.Wait(ctx, OpTaskUpdate); err != nil {
		return
	}

	var existing Task
	existing, err = s.tasks.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated := existing
	applyPatch(&updated.Title, patch.Title)
	applyPatch(&updated.Description, patch.Description)
	applyPatch(&updated.DueDate, patch.DueDate)
	applyPatch(&updated.Category, patch.Category)
	applyPatch(&updated.Completed, patch.Completed)
	updated.Title = strings.TrimSpace(updated.Title)
	updated.Description = strings.TrimSpace(updated.Description)
	updated.DueDate = strings.TrimSpace(updated.DueDate)

	vErr := &ValidationError{}
	if patch.Title != nil {
		validateTaskTitle(updated.Title, vErr)
	}
	if patch.DueDate != nil && updated.DueDate != existing.DueDate {
		validateDueDate(updated.DueDate, today(s.opts.Now, s.opts.Location), vErr)
	}
	if patch.Category != nil {
		validateCategory(updated.Category, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.opts.Now()
	task, err = s.tasks.Update(ctx, updated)
	err = mapRepoError(err)
	return
}

// ToggleCompleted flips the completion flag of a task.
func (s *TaskService) ToggleCompleted(ctx context.Context, id string) (Task, error) {
	if err := s.ready(); err != nil {
		return Task{}, err
	}
	current, err := s.tasks.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ToggleCompleted", "task_id", id).ErrorContext(ctx, "failed to load task", "error", err, "error_kind", ErrorKind(err))
		return Task{}, err
	}
	completed := !current.Completed
	return s.Update(ctx, id, TaskPatch{Completed: &completed})
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "Delete", "task_id", id)
	if err := s.opts.Latency.Wait(ctx, OpTaskDelete); err != nil {
		logger.ErrorContext(ctx, "task deletion interrupted", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "task deleted")
	return nil
}
