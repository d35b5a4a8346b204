//go:build integration

package mongodb_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/mongodb"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/phrazzld/taskman-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, users *mongodb.MongoUserStore, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Owner", email, "MyPass777!", 30)
	require.NoError(t, err)
	user.HashedPassword, user.Password = "hash", ""
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestMongoStores_Integration(t *testing.T) {
	db := testdb.Mongo(t)
	ctx := context.Background()
	users := mongodb.NewMongoUserStore(db, nil)
	tasks := mongodb.NewMongoTaskStore(db, nil)

	require.NoError(t, users.Ping(ctx))

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := domain.NewUser("Again", "alice@example.com", "MyPass777!", 0)
		require.NoError(t, err)
		dup.HashedPassword, dup.Password = "hash", ""
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)
	})

	t.Run("tokens and avatar", func(t *testing.T) {
		require.NoError(t, users.AddToken(ctx, alice.ID, "tok-a"))
		require.NoError(t, users.AddToken(ctx, alice.ID, "tok-b"))
		require.NoError(t, users.RemoveToken(ctx, alice.ID, "tok-a"))

		_, err := users.GetByIDAndToken(ctx, alice.ID, "tok-a")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = users.GetByIDAndToken(ctx, alice.ID, "tok-b")
		require.NoError(t, err)

		require.NoError(t, users.ClearTokens(ctx, alice.ID))
		_, err = users.GetByIDAndToken(ctx, alice.ID, "tok-b")
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		require.NoError(t, users.SetAvatar(ctx, alice.ID, []byte{1, 2, 3}))
		got, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, got.HasAvatar())

		require.NoError(t, users.SetAvatar(ctx, alice.ID, nil))
		got, err = users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.False(t, got.HasAvatar())
	})

	t.Run("owner isolation and ordering", func(t *testing.T) {
		for _, d := range []string{"First task", "Second task", "Third task"} {
			task, err := domain.NewTask(alice.ID, d, d == "Third task")
			require.NoError(t, err)
			require.NoError(t, tasks.Create(ctx, task))
		}
		bobTask, err := domain.NewTask(bob.ID, "Bob only", false)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, bobTask))

		page, err := tasks.List(ctx, domain.TaskQuery{OwnerID: alice.ID, Limit: 2, Skip: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "Second task", page[0].Description)

		done := true
		completed, err := tasks.List(ctx, domain.TaskQuery{OwnerID: alice.ID, Completed: &done, Limit: 100})
		require.NoError(t, err)
		require.Len(t, completed, 1)
		assert.Equal(t, "Third task", completed[0].Description)

		_, err = tasks.GetByID(ctx, alice.ID, bobTask.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("concurrent partial updates", func(t *testing.T) {
		task, err := domain.NewTask(bob.ID, "Shared", false)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))

		done, renamed := true, "Renamed"
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, upd := range []domain.TaskUpdate{{Completed: &done}, {Description: &renamed}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = tasks.Update(ctx, bob.ID, task.ID, upd)
			}()
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		got, err := tasks.GetByID(ctx, bob.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Description)
		assert.True(t, got.Completed)

		_, err = tasks.Delete(ctx, bob.ID, task.ID)
		require.NoError(t, err)

		name := "Robert"
		updated, err := users.Update(ctx, bob.ID, domain.UserUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Robert", updated.Name)
		assert.Equal(t, "bob@example.com", updated.Email)

		taken := "alice@example.com"
		_, err = users.Update(ctx, bob.ID, domain.UserUpdate{Email: &taken})
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("cascade delete", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, alice.ID))

		left, err := tasks.List(ctx, domain.TaskQuery{OwnerID: alice.ID, Limit: 100})
		require.NoError(t, err)
		assert.Empty(t, left)

		bobs, err := tasks.List(ctx, domain.TaskQuery{OwnerID: bob.ID, Limit: 100})
		require.NoError(t, err)
		assert.Len(t, bobs, 1)

		assert.ErrorIs(t, users.Delete(ctx, uuid.New()), store.ErrUserNotFound)
	})
}
