package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore for use with testify/mock.
// Prefer MockUserStore unless a test needs to assert on exact calls.
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

func userResult(args mock.Arguments) (*domain.User, error) {
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *TestifyMockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return userResult(m.Called(ctx, id))
}

// GetByEmail is a mock implementation of store.UserStore.GetByEmail
func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return userResult(m.Called(ctx, email))
}

// GetByIDAndToken is a mock implementation of store.UserStore.GetByIDAndToken
func (m *TestifyMockUserStore) GetByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error) {
	return userResult(m.Called(ctx, id, token))
}

// Update is a mock implementation of store.UserStore.Update
func (m *TestifyMockUserStore) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	return userResult(m.Called(ctx, id, upd))
}

// Delete is a mock implementation of store.UserStore.Delete
func (m *TestifyMockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// AddToken is a mock implementation of store.UserStore.AddToken
func (m *TestifyMockUserStore) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

// RemoveToken is a mock implementation of store.UserStore.RemoveToken
func (m *TestifyMockUserStore) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

// ClearTokens is a mock implementation of store.UserStore.ClearTokens
func (m *TestifyMockUserStore) ClearTokens(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// SetAvatar is a mock implementation of store.UserStore.SetAvatar
func (m *TestifyMockUserStore) SetAvatar(ctx context.Context, id uuid.UUID, image []byte) error {
	return m.Called(ctx, id, image).Error(0)
}

// Ping is a mock implementation of store.UserStore.Ping
func (m *TestifyMockUserStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
