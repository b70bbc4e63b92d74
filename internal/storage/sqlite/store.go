// Package sqlite is an embedded backend built on gorm and the sqlite3 driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type userRow struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"not null;uniqueIndex:users_username_unique_idx"`
	Email        string `gorm:"not null;uniqueIndex:users_email_unique_idx"`
	Role         string `gorm:"not null;default:standard"`
	Image        string `gorm:"not null;default:''"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type taskRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"not null"`
	Description string `gorm:"not null;default:''"`
	Priority    string `gorm:"not null;default:Medium"`
	DueDate     *time.Time
	Status      string   `gorm:"not null;default:To-Do"`
	CreatedBy   int64    `gorm:"not null;index"`
	Owner       *userRow `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskRow) TableName() string { return "tasks" }

// Store provides SQLite-backed persistence for users and tasks.
type Store struct {
	db *gorm.DB
}

// Open creates the database file if needed and migrates the schema.
func Open(dbPath string, debug bool) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	gormLogger := gormlogger.Discard
	if debug {
		gormLogger = gormlogger.Default
	}

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under concurrent requests
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, err
	}

	for _, model := range []any{&userRow{}, &taskRow{}} {
		if err := db.AutoMigrate(model); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Users

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	row := toUserRow(user)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.User{}, userWriteError("insert user", err)
	}
	return row.model(), nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *Store) findUser(ctx context.Context, query string, arg any) (models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, storage.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return row.model(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	res := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"username":   user.Username,
			"email":      user.Email,
			"image":      user.Image,
			"role":       string(user.Role),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return models.User{}, userWriteError("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, user.ID)
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and its tasks in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("created_by = ?", id).Delete(&taskRow{}).Error; err != nil {
			return fmt.Errorf("delete user tasks: %w", err)
		}
		res := tx.Delete(&userRow{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	row := toTaskRow(task)
	row.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&userRow{}).Where("id = ?", task.OwnerID).Count(&owners).Error; err != nil {
			return fmt.Errorf("check owner: %w", err)
		}
		if owners == 0 {
			return storage.ErrNotFound
		}
		return tx.Omit("Owner").Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || isForeignKeyViolation(err) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return row.model(), nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return row.model(), nil
}

func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	return s.listTasks(s.db.WithContext(ctx).Where("created_by = ?", ownerID))
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.listTasks(s.db.WithContext(ctx))
}

func (s *Store) listTasks(q *gorm.DB) ([]models.Task, error) {
	var rows []taskRow
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.model())
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	res := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"priority":    string(task.Priority),
			"due_date":    task.DueDate,
			"status":      string(task.Status),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return models.Task{}, fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Task{}, storage.ErrNotFound
	}
	return s.GetTask(ctx, task.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&taskRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// conversions

func toUserRow(u models.User) userRow {
	return userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		Image:        u.Image,
		PasswordHash: u.PasswordHash,
	}
}

func (r userRow) model() models.User {
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		Role:         models.Role(r.Role),
		Image:        r.Image,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toTaskRow(t models.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		CreatedBy:   t.OwnerID,
	}
}

func (r taskRow) model() models.Task {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    models.Priority(r.Priority),
		Status:      models.TaskStatus(r.Status),
		OwnerID:     r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DueDate != nil {
		d := r.DueDate.UTC()
		t.DueDate = &d
	}
	return t
}

// sqlite error helpers; the driver reports constraint failures as text.

func userWriteError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return storage.ErrUsernameExists
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return storage.ErrEmailExists
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return storage.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
