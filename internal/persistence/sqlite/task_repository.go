package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/teamboard/internal/persistence"
)

const taskColumns = `id, title, description, due_date, category, completed, created_at, updated_at`

func scanTask(row rowScanner) (persistence.Task, error) {
	var (
		task                 persistence.Task
		dueDate              sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&task.ID, &task.Title, &task.Description, &dueDate, &task.Category, &task.Completed, &createdAt, &updatedAt); err != nil {
		return persistence.Task{}, err
	}
	task.DueDate = stringPtr(dueDate)
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return task, nil
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.helper.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Title,
		task.Description,
		nullableString(task.DueDate),
		task.Category,
		task.Completed,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// UpdateTask replaces the mutable fields of an existing task.
func (s *Store) UpdateTask(ctx context.Context, task persistence.Task) error {
	err := requireAffected(s.helper.Exec(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, category = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`,
		task.Title,
		task.Description,
		nullableString(task.DueDate),
		task.Category,
		task.Completed,
		formatTime(task.UpdatedAt),
		task.ID,
	))
	return s.mapper.MapError(err)
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	task, err := scanTask(s.helper.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	return task, s.mapper.MapError(err)
}

// ListTasks returns every task in insertion order.
func (s *Store) ListTasks(ctx context.Context) ([]persistence.Task, error) {
	rows, err := s.helper.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	tasks := make([]persistence.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		tasks = append(tasks, task)
	}
	return tasks, s.mapper.MapError(rows.Err())
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mapper.MapError(requireAffected(s.helper.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)))
}
