package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

// CreateTask persists a new task.
func (s *SQLiteStorage) CreateTask(ctx context.Context, task *model.Task) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTask(task); err != nil {
		return err
	}

	ts := now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = ts
	}
	task.UpdatedAt = ts

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, due_date, priority,
			is_recurring, recurrence_rule, photo_url, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.UserID, task.Title, task.Description, nullTime(task.DueDate),
		string(task.Priority), task.IsRecurring, task.RecurrenceRule, task.PhotoURL,
		task.Completed, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by id.
func (s *SQLiteStorage) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var task model.Task
	var dueDate sql.NullTime
	var priority string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, due_date, priority,
			is_recurring, recurrence_rule, photo_url, completed, created_at, updated_at
		FROM tasks
		WHERE user_id = ? AND id = ?
	`, userID, id).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &dueDate, &priority,
		&task.IsRecurring, &task.RecurrenceRule, &task.PhotoURL, &task.Completed,
		&task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task.DueDate = timePtr(dueDate)
	task.Priority = model.Priority(priority)

	return &task, nil
}

// ListTasks retrieves tasks matching the filter, soonest due date first.
// Tasks without a due date sort last.
func (s *SQLiteStorage) ListTasks(ctx context.Context, userID string, filter service.TaskFilter) ([]model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, title, description, due_date, priority,
			is_recurring, recurrence_rule, photo_url, completed, created_at, updated_at
		FROM tasks
		WHERE user_id = ?`
	args := []any{userID}

	if filter.PendingOnly {
		query += ` AND completed = 0`
	}
	if filter.DueBefore != nil {
		query += ` AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, *filter.DueBefore)
	}

	query += ` ORDER BY due_date IS NULL, due_date ASC, created_at ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		var task model.Task
		var dueDate sql.NullTime
		var priority string
		if err := rows.Scan(
			&task.ID, &task.UserID, &task.Title, &task.Description, &dueDate, &priority,
			&task.IsRecurring, &task.RecurrenceRule, &task.PhotoURL, &task.Completed,
			&task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.DueDate = timePtr(dueDate)
		task.Priority = model.Priority(priority)
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask replaces a task's mutable fields.
func (s *SQLiteStorage) UpdateTask(ctx context.Context, task *model.Task) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTask(task); err != nil {
		return err
	}

	task.UpdatedAt = now()

	return s.execOne(ctx, fmt.Errorf("%w: task %s", common.ErrNotFound, task.ID), `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?,
			is_recurring = ?, recurrence_rule = ?, photo_url = ?, completed = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, task.Title, task.Description, nullTime(task.DueDate), string(task.Priority),
		task.IsRecurring, task.RecurrenceRule, task.PhotoURL, task.Completed,
		task.UpdatedAt, task.UserID, task.ID)
}

// CompleteTask marks a task as done.
func (s *SQLiteStorage) CompleteTask(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: task %s", common.ErrNotFound, id), `
		UPDATE tasks SET completed = 1, updated_at = ? WHERE user_id = ? AND id = ?
	`, now(), userID, id)
}

// DeleteTask removes a task.
func (s *SQLiteStorage) DeleteTask(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: task %s", common.ErrNotFound, id), `
		DELETE FROM tasks WHERE user_id = ? AND id = ?
	`, userID, id)
}
