package dto

import (
	"strings"
	"time"

	"github.com/hongminglow/lapse-be/internal/models"
)

type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     string          `json:"due_date"`
}

// ParsedDueDate returns nil when no due date was sent.
func (r CreateTaskRequest) ParsedDueDate() (*time.Time, error) {
	if strings.TrimSpace(r.DueDate) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(r.DueDate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type UpdateTaskRequest struct {
	Title       models.Optional[string]            `json:"title"`
	Description models.Optional[string]            `json:"description"`
	Priority    models.Optional[models.Priority]   `json:"priority"`
	Status      models.Optional[models.TaskStatus] `json:"status"`
	DueDate     models.Optional[string]            `json:"due_date"`
}

// Patch converts the request into a models.TaskPatch. Values are validated by the task service.
func (r UpdateTaskRequest) Patch() models.TaskPatch {
	return models.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
	}
}
