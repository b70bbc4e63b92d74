// Package memory is a process-local backend used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and tasks in maps guarded by a single RWMutex.
type Store struct {
	mu sync.RWMutex

	nextUserID int64
	nextTaskID int64

	users map[int64]models.User
	tasks map[int64]models.Task
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nextUserID: 1,
		nextTaskID: 1,
		users:      make(map[int64]models.User),
		tasks:      make(map[int64]models.Task),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Users

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(0, user.Username, user.Email); err != nil {
		return models.User{}, err
	}

	now := s.now()
	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if err := s.checkUniqueLocked(user.ID, user.Username, user.Email); err != nil {
		return models.User{}, err
	}

	cur.Username = user.Username
	cur.Email = user.Email
	cur.Image = user.Image
	cur.Role = user.Role
	cur.UpdatedAt = s.now()
	s.users[cur.ID] = cur
	return cur, nil
}

func (s *Store) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	cur.PasswordHash = passwordHash
	cur.UpdatedAt = s.now()
	s.users[id] = cur
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	for tid, t := range s.tasks {
		if t.OwnerID == id {
			delete(s.tasks, tid)
		}
	}
	return nil
}

// checkUniqueLocked mirrors the unique indexes of the SQL backends.
func (s *Store) checkUniqueLocked(selfID int64, username, email string) error {
	for _, u := range s.users {
		if u.ID == selfID {
			continue
		}
		if u.Username == username {
			return storage.ErrUsernameExists
		}
	}
	for _, u := range s.users {
		if u.ID == selfID {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return storage.ErrEmailExists
		}
	}
	return nil
}

// Tasks

func cloneTask(t models.Task) models.Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}

func (s *Store) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[task.OwnerID]; !ok {
		return models.Task{}, storage.ErrNotFound
	}

	now := s.now()
	task.ID = s.nextTaskID
	s.nextTaskID++
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

func (s *Store) GetTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *Store) ListTasksByOwner(_ context.Context, ownerID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectLocked(func(t models.Task) bool { return t.OwnerID == ownerID }), nil
}

func (s *Store) ListTasks(context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectLocked(func(models.Task) bool { return true }), nil
}

func (s *Store) collectLocked(keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpdateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[task.ID]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	cur.Title = task.Title
	cur.Description = task.Description
	cur.Priority = task.Priority
	cur.DueDate = task.DueDate
	cur.Status = task.Status
	cur.UpdatedAt = s.now()
	s.tasks[cur.ID] = cloneTask(cur)
	return cloneTask(cur), nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
