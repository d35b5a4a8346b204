package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTasks(t *testing.T, m *MockTaskStore, owner uuid.UUID, specs map[string]bool, order []string) {
	t.Helper()
	for _, d := range order {
		task, err := domain.NewTask(owner, d, specs[d])
		require.NoError(t, err)
		require.NoError(t, m.Create(context.Background(), task))
	}
}

func descriptions(tasks []*domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

func TestMockTaskStore_List(t *testing.T) {
	ctx := context.Background()
	m := NewMockTaskStore()
	owner := uuid.New()
	other := uuid.New()

	seedTasks(t, m, owner,
		map[string]bool{"First task": false, "Second task": true, "Third task": false},
		[]string{"First task", "Second task", "Third task"})
	seedTasks(t, m, other, map[string]bool{"Other": true}, []string{"Other"})

	t.Run("insertion order by default", func(t *testing.T) {
		got, err := m.List(ctx, domain.TaskQuery{OwnerID: owner, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"First task", "Second task", "Third task"}, descriptions(got))
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := m.List(ctx, domain.TaskQuery{OwnerID: owner, Limit: 2, Skip: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Second task", "Third task"}, descriptions(got))

		got, err = m.List(ctx, domain.TaskQuery{OwnerID: owner, Limit: 2, Skip: 5})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("completed filter", func(t *testing.T) {
		done := true
		got, err := m.List(ctx, domain.TaskQuery{OwnerID: owner, Completed: &done, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"Second task"}, descriptions(got))
	})

	t.Run("completed desc puts true first", func(t *testing.T) {
		got, err := m.List(ctx, domain.TaskQuery{
			OwnerID: owner,
			Sort:    &domain.TaskSort{Field: domain.SortByCompleted, Direction: domain.SortDesc},
			Limit:   10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Second task", "First task", "Third task"}, descriptions(got))
	})

	t.Run("owner scoping", func(t *testing.T) {
		got, err := m.List(ctx, domain.TaskQuery{OwnerID: other, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)

		_, err = m.GetByID(ctx, owner, got[0].ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		_, err = m.Delete(ctx, owner, got[0].ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestMockUserStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	users.Tasks = tasks

	user, err := domain.NewUser("Owner", "owner@example.com", "MyPass777!", 0)
	require.NoError(t, err)
	user.HashedPassword, user.Password = "hash", ""
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, users.AddToken(ctx, user.ID, "tok"))

	seedTasks(t, tasks, user.ID, map[string]bool{}, []string{"a", "b"})
	require.Equal(t, 2, tasks.Count(user.ID))

	require.NoError(t, users.Delete(ctx, user.ID))
	assert.Zero(t, tasks.Count(user.ID))
	assert.Empty(t, users.Tokens(user.ID))
	assert.ErrorIs(t, users.Delete(ctx, user.ID), store.ErrUserNotFound)
}
