// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("user uniqueness", func(t *testing.T) { testUserUniqueness(t, newStore(t)) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, newStore(t)) })
	t.Run("delete user cascades", func(t *testing.T) { testCascade(t, newStore(t)) })
}

// MustCreateUser inserts a standard user with a placeholder hash.
func MustCreateUser(t *testing.T, s storage.UserStore, username string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Username:     username,
		Email:        username + "@x.com",
		Role:         models.RoleStandard,
		PasswordHash: "hash-" + username,
	})
	require.NoError(t, err)
	return u
}

// MustCreateTask inserts a To-Do task with Medium priority.
func MustCreateTask(t *testing.T, s storage.TaskStore, ownerID int64, title string) models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), models.Task{
		Title:    title,
		Priority: models.PriorityMedium,
		Status:   models.StatusTodo,
		OwnerID:  ownerID,
	})
	require.NoError(t, err)
	return task
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	alice := MustCreateUser(t, s, "alice")
	assert.Positive(t, alice.ID)
	assert.Equal(t, models.RoleStandard, alice.Role)
	assert.Equal(t, "hash-alice", alice.PasswordHash)

	got, err := s.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.FindByEmail(ctx, "ALICE@X.com")
	require.NoError(t, err, "email lookup ignores case")
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.FindByID(ctx, alice.ID+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	alice.Username = "alice2"
	alice.Image = "uploads/alice.png"
	alice.Role = models.RoleAdmin
	updated, err := s.UpdateUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "uploads/alice.png", updated.Image)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, "hash-alice", updated.PasswordHash)

	require.NoError(t, s.UpdatePassword(ctx, alice.ID, "new-hash"))
	got, err = s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.ErrorIs(t, s.UpdatePassword(ctx, alice.ID+100, "x"), storage.ErrNotFound)

	bob := MustCreateUser(t, s, "bob")
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.Equal(t, bob.ID, users[1].ID)

	require.NoError(t, s.DeleteUser(ctx, bob.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, bob.ID), storage.ErrNotFound)
}

func testUserUniqueness(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := MustCreateUser(t, s, "alice")
	bob := MustCreateUser(t, s, "bob")

	_, err := s.CreateUser(ctx, models.User{Username: "alice", Email: "other@x.com", Role: models.RoleStandard, PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrUsernameExists)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = s.CreateUser(ctx, models.User{Username: "carol", Email: "alice@x.com", Role: models.RoleStandard, PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	bob.Email = alice.Email
	_, err = s.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	// rewriting your own values is not a conflict
	_, err = s.UpdateUser(ctx, alice)
	assert.NoError(t, err)
}

func testTasks(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := MustCreateUser(t, s, "alice")
	bob := MustCreateUser(t, s, "bob")

	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.CreateTask(ctx, models.Task{
		Title:       "Write report",
		Description: "first draft",
		Priority:    models.PriorityHigh,
		Status:      models.StatusTodo,
		DueDate:     &due,
		OwnerID:     alice.ID,
	})
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.Equal(t, alice.ID, first.OwnerID)
	require.NotNil(t, first.DueDate)
	assert.True(t, due.Equal(*first.DueDate))

	second := MustCreateTask(t, s, alice.ID, "Review")
	MustCreateTask(t, s, bob.ID, "Bob's task")

	mine, err := s.ListTasksByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, second.ID, mine[1].ID)
	for _, task := range mine {
		assert.Equal(t, alice.ID, task.OwnerID)
	}

	all, err := s.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	first.Status = models.StatusDone
	first.DueDate = nil
	first.OwnerID = bob.ID
	updated, err := s.UpdateTask(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, alice.ID, updated.OwnerID, "owner is immutable")

	_, err = s.UpdateTask(ctx, models.Task{ID: 9999, Title: "x", Priority: models.PriorityLow, Status: models.StatusTodo})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, first.ID))
	_, err = s.GetTask(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, first.ID), storage.ErrNotFound)

	empty, err := s.ListTasksByOwner(ctx, 9999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testCascade(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := MustCreateUser(t, s, "alice")
	bob := MustCreateUser(t, s, "bob")
	task := MustCreateTask(t, s, alice.ID, "doomed")
	kept := MustCreateTask(t, s, bob.ID, "kept")

	require.NoError(t, s.DeleteUser(ctx, alice.ID))

	_, err := s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTask(ctx, kept.ID)
	assert.NoError(t, err)
}
