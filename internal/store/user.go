package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
// It owns the user's credentials: the password hash, the list of
// active session tokens and the avatar image.
type UserStore interface {
	// Create saves a new user to the store.
	// The caller must have hashed the password; Create never sees plaintext.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByIDAndToken retrieves a user only if token is in their active token list.
	// Returns ErrUserNotFound if the user does not exist or the token was revoked.
	GetByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error)

	// Update writes the fields set in upd, plus updated_at, in one atomic
	// operation and returns the user as stored afterwards. The password is
	// taken from upd.HashedPassword; a plaintext Password is rejected.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if updating to an email that already exists.
	Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error)

	// Delete removes a user together with every task they own.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddToken appends a session token to the user's active list.
	AddToken(ctx context.Context, id uuid.UUID, token string) error

	// RemoveToken removes exactly one token from the user's active list.
	// Removing a token that is not present is not an error.
	RemoveToken(ctx context.Context, id uuid.UUID, token string) error

	// ClearTokens removes every active token of the user.
	ClearTokens(ctx context.Context, id uuid.UUID) error

	// SetAvatar replaces the user's avatar image. A nil image clears it.
	// Returns ErrUserNotFound if the user does not exist.
	SetAvatar(ctx context.Context, id uuid.UUID, image []byte) error

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
}
