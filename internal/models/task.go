package models

import (
	"errors"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "To-Do"
	StatusInProgress TaskStatus = "In-Progress"
	StatusDone       TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a board card owned by exactly one user.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Status      TaskStatus `json:"status"`
	OwnerID     int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPatch lists task fields to change. The owner is never patchable.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Priority    Optional[Priority]
	Status      Optional[TaskStatus]
	// DueDate holds the raw date; ParseDate validates it. Null or blank clears it.
	DueDate Optional[string]
}

// Empty reports whether no field was supplied.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Priority.Set && !p.Status.Set && !p.DueDate.Set
}

// ErrInvalidDate is returned when a due date is neither YYYY-MM-DD nor RFC 3339.
var ErrInvalidDate = errors.New("due_date must be YYYY-MM-DD or RFC 3339")

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}
