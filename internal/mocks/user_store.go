package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
)

// MockUserStore implements store.UserStore in memory for testing.
// Stored users are copied on the way in and out, so callers cannot
// mutate store state without calling Update.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn          func(ctx context.Context, user *domain.User) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn      func(ctx context.Context, email string) (*domain.User, error)
	GetByIDAndTokenFn func(ctx context.Context, id uuid.UUID, token string) (*domain.User, error)
	UpdateFn          func(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error)
	DeleteFn          func(ctx context.Context, id uuid.UUID) error
	AddTokenFn        func(ctx context.Context, id uuid.UUID, token string) error
	SetAvatarFn       func(ctx context.Context, id uuid.UUID, image []byte) error
	PingErr           error

	// Tasks, when set, receives DeleteByOwner on user deletion.
	Tasks store.TaskStore

	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	tokens map[uuid.UUID][]string
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new, empty mock store.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[uuid.UUID][]string),
	}
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.Avatar = slices.Clone(u.Avatar)
	return &c
}

// Create implements store.UserStore.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	m.users[user.ID] = clone(user)
	return nil
}

// GetByID implements store.UserStore.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return clone(user), nil
}

// GetByEmail implements store.UserStore.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email = domain.NormalizeEmail(email)
	for _, user := range m.users {
		if user.Email == email {
			return clone(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByIDAndToken implements store.UserStore.
func (m *MockUserStore) GetByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error) {
	if m.GetByIDAndTokenFn != nil {
		return m.GetByIDAndTokenFn(ctx, id, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok || !slices.Contains(m.tokens[id], token) {
		return nil, store.ErrUserNotFound
	}
	return clone(user), nil
}

// Update implements store.UserStore. The update is applied under the
// store lock, matching the single-statement update of the database stores.
func (m *MockUserStore) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, upd)
	}
	if upd.Password != nil {
		return nil, domain.NewValidationError("password", "must be hashed before storing", domain.ErrInvalidPassword)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}

	updated := clone(existing)
	if err := updated.Apply(upd); err != nil {
		return nil, err
	}
	for otherID, other := range m.users {
		if otherID != id && other.Email == updated.Email {
			return nil, store.ErrEmailExists
		}
	}

	m.users[id] = updated
	return clone(updated), nil
}

// Delete implements store.UserStore. When Tasks is set the user's
// tasks are removed first.
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	if m.Tasks != nil {
		if _, err := m.Tasks.DeleteByOwner(ctx, id); err != nil {
			return err
		}
	}
	delete(m.users, id)
	delete(m.tokens, id)
	return nil
}

// AddToken implements store.UserStore.
func (m *MockUserStore) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	if m.AddTokenFn != nil {
		return m.AddTokenFn(ctx, id, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	m.tokens[id] = append(m.tokens[id], token)
	return nil
}

// RemoveToken implements store.UserStore.
func (m *MockUserStore) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[id] = slices.DeleteFunc(m.tokens[id], func(t string) bool { return t == token })
	return nil
}

// ClearTokens implements store.UserStore.
func (m *MockUserStore) ClearTokens(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, id)
	return nil
}

// SetAvatar implements store.UserStore.
func (m *MockUserStore) SetAvatar(ctx context.Context, id uuid.UUID, image []byte) error {
	if m.SetAvatarFn != nil {
		return m.SetAvatarFn(ctx, id, image)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Avatar = slices.Clone(image)
	return nil
}

// Ping implements store.UserStore.
func (m *MockUserStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Tokens returns a copy of the active tokens of a user.
func (m *MockUserStore) Tokens(id uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.tokens[id])
}

// Len reports how many users are stored.
func (m *MockUserStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.users)
}
