package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/logger"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
)

// NewTask is the data accepted when creating a task.
type NewTask struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
}

// TaskService enforces task ownership on top of a TaskStore.
type TaskService struct {
	tasks storage.TaskStore
}

func NewTaskService(tasks storage.TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create stores a task owned by ownerID with status To-Do.
func (s *TaskService) Create(ctx context.Context, ownerID int64, in NewTask) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, ErrMissingTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, invalidf("priority must be one of Low, Medium, High")
	}

	created, err := s.tasks.CreateTask(ctx, models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		DueDate:     in.DueDate,
		Status:      models.StatusTodo,
		OwnerID:     ownerID,
	})
	if err != nil {
		// the owner vanished between token issuance and this call
		if errors.Is(err, storage.ErrNotFound) {
			return models.Task{}, ErrUserNotFound
		}
		return models.Task{}, err
	}
	logger.Debugf("task created: id=%d owner=%d", created.ID, ownerID)
	return created, nil
}

// List returns the caller's tasks in creation order.
func (s *TaskService) List(ctx context.Context, callerID int64) ([]models.Task, error) {
	return s.tasks.ListTasksByOwner(ctx, callerID)
}

// ListAll returns every user's tasks. Callers must already be authorized as admin.
func (s *TaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	return s.tasks.ListTasks(ctx)
}

// Get returns a task visible to caller.
func (s *TaskService) Get(ctx context.Context, caller auth.Claims, id int64) (models.Task, error) {
	return s.owned(ctx, caller, id)
}

// Update applies the present fields of patch. Any status may follow any
// other; concurrent updates are last-write-wins.
func (s *TaskService) Update(ctx context.Context, caller auth.Claims, id int64, patch models.TaskPatch) (models.Task, error) {
	cur, err := s.owned(ctx, caller, id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.Empty() {
		return models.Task{}, ErrNoFields
	}
	due, err := patchDueDate(patch.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if patch.Title.Null || title == "" {
			return models.Task{}, ErrMissingTitle
		}
		cur.Title = title
	}
	if patch.Description.Set {
		cur.Description = strings.TrimSpace(patch.Description.Value)
	}
	if patch.Priority.Set {
		if patch.Priority.Null || !patch.Priority.Value.Valid() {
			return models.Task{}, invalidf("priority must be one of Low, Medium, High")
		}
		cur.Priority = patch.Priority.Value
	}
	if patch.Status.Set {
		if patch.Status.Null || !patch.Status.Value.Valid() {
			return models.Task{}, invalidf("status must be one of To-Do, In-Progress, Done")
		}
		cur.Status = patch.Status.Value
	}
	if patch.DueDate.Set {
		cur.DueDate = due
	}

	updated, err := s.tasks.UpdateTask(ctx, cur)
	if err != nil {
		return models.Task{}, translateTaskErr(err)
	}
	return updated, nil
}

// Delete removes a task owned by caller, or any task for an admin.
func (s *TaskService) Delete(ctx context.Context, caller auth.Claims, id int64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return translateTaskErr(err)
	}
	logger.Debugf("task deleted: id=%d by=%d", id, caller.UserID)
	return nil
}

// owned loads a task and checks that caller owns it or is an admin.
// A missing task is reported before an ownership failure.
func (s *TaskService) owned(ctx context.Context, caller auth.Claims, id int64) (models.Task, error) {
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, translateTaskErr(err)
	}
	if t.OwnerID != caller.UserID && !caller.IsAdmin() {
		return models.Task{}, ErrForbidden
	}
	return t, nil
}

// patchDueDate parses a present due date; null or blank yields nil.
func patchDueDate(o models.Optional[string]) (*time.Time, error) {
	if !o.Set || o.Null || strings.TrimSpace(o.Value) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(o.Value)
	if err != nil {
		return nil, classed(ErrInvalidInput, err.Error())
	}
	return &d, nil
}

func translateTaskErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}
