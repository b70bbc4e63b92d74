package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, title, description, priority, due_date, status, created_by, created_at, updated_at`

// CreateTask inserts a task row.
func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
		INSERT INTO tasks (title, description, priority, due_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns
	row := s.pool.QueryRow(ctx, query, task.Title, task.Description, string(task.Priority), task.DueDate, string(task.Status), task.OwnerID)
	created, err := scanTask(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// ListTasksByOwner returns one user's tasks in creation order.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE created_by = $1 ORDER BY id ASC`, ownerID)
}

// ListTasks returns every task in creation order.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
}

// UpdateTask overwrites the mutable columns of a task.
func (s *Store) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, due_date = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns
	row := s.pool.QueryRow(ctx, query, task.ID, task.Title, task.Description, string(task.Priority), task.DueDate, string(task.Status))
	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	var priority, status string
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &priority, &task.DueDate, &status, &task.OwnerID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, err
	}
	task.Priority = models.Priority(priority)
	task.Status = models.TaskStatus(status)
	return task, nil
}
