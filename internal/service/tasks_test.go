package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage/memory"
	"github.com/hongminglow/lapse-be/internal/storage/storagetest"
)

type taskFixture struct {
	svc        *TaskService
	alice, bob auth.Claims
	admin      auth.Claims
	aliceID    int64
	bobID      int64
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	store := memory.NewStore()
	alice := storagetest.MustCreateUser(t, store, "alice")
	bob := storagetest.MustCreateUser(t, store, "bob")
	root := storagetest.MustCreateUser(t, store, "root")
	return taskFixture{
		svc:     NewTaskService(store),
		alice:   auth.Claims{UserID: alice.ID, Email: alice.Email, Role: models.RoleStandard},
		bob:     auth.Claims{UserID: bob.ID, Email: bob.Email, Role: models.RoleStandard},
		admin:   auth.Claims{UserID: root.ID, Email: root.Email, Role: models.RoleAdmin},
		aliceID: alice.ID,
		bobID:   bob.ID,
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newTaskFixture(t)

	task, err := f.svc.Create(context.Background(), f.aliceID, NewTask{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, f.aliceID, task.OwnerID)
	assert.Nil(t, task.DueDate)
}

func TestCreateTaskValidation(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "   "})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = f.svc.Create(ctx, f.aliceID, NewTask{Title: "x", Priority: "Urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, 4242, NewTask{Title: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListIsolatesOwners(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	a1, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "a1"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.bobID, NewTask{Title: "b1"})
	require.NoError(t, err)
	a2, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "a2", Priority: models.PriorityHigh})
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, f.aliceID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, []int64{a1.ID, a2.ID}, []int64{mine[0].ID, mine[1].ID})
	for _, task := range mine {
		assert.Equal(t, f.aliceID, task.OwnerID)
	}

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateOwnership(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "mine"})
	require.NoError(t, err)

	done := models.Some(models.StatusDone)

	_, err = f.svc.Update(ctx, f.bob, task.ID, models.TaskPatch{Status: done})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob, task.ID), ErrForbidden)
	_, err = f.svc.Get(ctx, f.bob, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{Status: done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "mine", updated.Title)

	// admins may act on any task
	back, err := f.svc.Update(ctx, f.admin, task.ID, models.TaskPatch{Status: models.Some(models.StatusTodo)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, back.Status)
	assert.Equal(t, f.aliceID, back.OwnerID)

	require.NoError(t, f.svc.Delete(ctx, f.alice, task.ID))
	_, err = f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{Status: done})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, task.ID), ErrTaskNotFound)
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	task, err := f.svc.Create(ctx, f.aliceID, NewTask{
		Title:       "plan",
		Description: "draft",
		Priority:    models.PriorityLow,
		DueDate:     &due,
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{Title: models.Some("plan v2")})
	require.NoError(t, err)
	assert.Equal(t, "plan v2", updated.Title)
	assert.Equal(t, "draft", updated.Description)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))

	cleared, err := f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{
		DueDate:     models.Optional[string]{Set: true, Null: true},
		Description: models.Optional[string]{Set: true, Null: true},
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
	assert.Empty(t, cleared.Description)
}

func TestUpdateValidation(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "t"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch models.TaskPatch
		want  error
	}{
		{"empty patch", models.TaskPatch{}, ErrNoFields},
		{"blank title", models.TaskPatch{Title: models.Some("  ")}, ErrMissingTitle},
		{"null title", models.TaskPatch{Title: models.Optional[string]{Set: true, Null: true}}, ErrMissingTitle},
		{"bad status", models.TaskPatch{Status: models.Some(models.TaskStatus("Blocked"))}, ErrInvalidInput},
		{"null status", models.TaskPatch{Status: models.Optional[models.TaskStatus]{Set: true, Null: true}}, ErrInvalidInput},
		{"bad priority", models.TaskPatch{Priority: models.Some(models.Priority("Urgent"))}, ErrInvalidInput},
		{"bad due date", models.TaskPatch{DueDate: models.Some("next week")}, ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, f.alice, task.ID, tc.patch)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStatusTransitionsAreUnconstrained(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "t"})
	require.NoError(t, err)

	for _, st := range []models.TaskStatus{models.StatusDone, models.StatusTodo, models.StatusInProgress, models.StatusDone, models.StatusInProgress} {
		got, err := f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{Status: models.Some(st)})
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
}

func TestUpdateChecksOwnershipBeforeInput(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, f.aliceID, NewTask{Title: "t"})
	require.NoError(t, err)

	bad := models.TaskPatch{DueDate: models.Some("31/12/2026")}
	_, err = f.svc.Update(ctx, f.bob, task.ID, bad)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Update(ctx, f.bob, task.ID+100, bad)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = f.svc.Update(ctx, f.bob, task.ID, models.TaskPatch{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Update(ctx, f.alice, task.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.svc.Update(ctx, f.alice, task.ID, models.TaskPatch{DueDate: models.Some("2026-12-31")})
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-12-31", got.DueDate.Format(time.DateOnly))
}
