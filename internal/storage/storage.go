package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/lapse-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Column-specific uniqueness conflicts on users. Both match ErrAlreadyExists.
var (
	ErrUsernameExists = fmt.Errorf("username: %w", ErrAlreadyExists)
	ErrEmailExists    = fmt.Errorf("email: %w", ErrAlreadyExists)
)

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUser writes username, email, image and role for user.ID.
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// DeleteUser removes the user and every task it owns.
	DeleteUser(ctx context.Context, id int64) error
}

// TaskStore captures persistence operations for board tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	// ListTasksByOwner returns the owner's tasks in creation order.
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	// UpdateTask writes every mutable field of task.ID; the owner is untouched.
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	TaskStore
	Ping(ctx context.Context) error
	Close() error
}
