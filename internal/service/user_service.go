package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/imaging"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/redact"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
)

// SignUpInput carries the fields accepted at signup.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// UserService provides account, session and avatar operations.
type UserService interface {
	// SignUp creates an account and opens its first session.
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, string, error)

	// Login verifies credentials and opens an additional session.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// Authenticate resolves an active bearer token to its user.
	// Returns ErrUnauthenticated when the token is not usable.
	Authenticate(ctx context.Context, token string) (*domain.User, error)

	// Logout revokes exactly the given token.
	Logout(ctx context.Context, userID uuid.UUID, token string) error

	// LogoutAll revokes every token of the user.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// GetProfile returns the user.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies the allow-listed changes, rehashing a new password.
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd domain.UserUpdate) (*domain.User, error)

	// DeleteAccount removes the user and every task they own, returning the removed user.
	DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// SetAvatar validates and normalizes an uploaded image and stores it.
	SetAvatar(ctx context.Context, userID uuid.UUID, data []byte) error

	// RemoveAvatar clears the user's avatar.
	RemoveAvatar(ctx context.Context, userID uuid.UUID) error

	// GetAvatar returns the stored PNG avatar. Returns ErrAvatarNotFound when none is set.
	GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// AvatarOptions bounds avatar uploads.
type AvatarOptions struct {
	MaxBytes int64
	Size     int
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	users  store.UserStore
	tokens auth.TokenService
	hasher auth.PasswordHasher
	avatar AvatarOptions
	log    logger.Component

	dummyOnce sync.Once
	dummyHash string
}

// dummyPassword is hashed once to give unknown-email logins a real hash to
// compare against.
const dummyPassword = "taskman-unknown-user"

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService.
func NewUserService(
	users store.UserStore,
	tokens auth.TokenService,
	hasher auth.PasswordHasher,
	avatar AvatarOptions,
	log *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		avatar: avatar,
		log:    logger.NewComponent(log, "user_service"),
	}
}

// SignUp implements UserService.
func (s *UserServiceImpl) SignUp(ctx context.Context, in SignUpInput) (*domain.User, string, error) {
	log := s.log.From(ctx)

	user, err := domain.NewUser(in.Name, in.Email, in.Password, in.Age)
	if err != nil {
		return nil, "", err
	}

	if err := s.hashPassword(user); err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, store.ErrEmailExists) {
			log.Error("failed to create user", slog.String("error", redact.Error(err)))
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		// Remove the sessionless account so the email stays free for a retry.
		if delErr := s.users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			log.Error("failed to remove user after token error",
				slog.String("user_id", user.ID.String()),
				slog.String("error", redact.Error(delErr)))
		}
		return nil, "", err
	}

	log.Info("user signed up", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

// Login implements UserService.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	log := s.log.From(ctx)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			s.compareDummy(password)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			log.Warn("password comparison failed",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
		}
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

// compareDummy spends one hash comparison so an unknown email takes as long
// to reject as a wrong password.
func (s *UserServiceImpl) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		if hash, err := s.hasher.Hash(dummyPassword); err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

func (s *UserServiceImpl) issueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.tokens.GenerateToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.users.AddToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := s.users.GetByIDAndToken(ctx, claims.UserID, token)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return user, nil
}

// Logout implements UserService.
func (s *UserServiceImpl) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.log.From(ctx).Debug("session closed", slog.String("user_id", userID.String()))
	return nil
}

// LogoutAll implements UserService.
func (s *UserServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	s.log.From(ctx).Info("all sessions closed", slog.String("user_id", userID.String()))
	return nil
}

// GetProfile implements UserService.
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// UpdateProfile implements UserService. A new password is hashed here and
// the store writes only the fields present in upd.
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	upd domain.UserUpdate,
) (*domain.User, error) {
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}

	passwordChanged := upd.Password != nil
	upd.HashedPassword = nil
	if passwordChanged {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		upd.HashedPassword = &hash
		upd.Password = nil
	}
	if upd.IsEmpty() {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.log.From(ctx).Info("user updated",
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", passwordChanged))
	return user, nil
}

// DeleteAccount implements UserService.
func (s *UserServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user for deletion: %w", err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		s.log.From(ctx).Error("failed to delete user",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return user, nil
}

// SetAvatar implements UserService.
func (s *UserServiceImpl) SetAvatar(ctx context.Context, userID uuid.UUID, data []byte) error {
	if len(data) == 0 {
		return domain.NewValidationError("avatar", "please upload an image", domain.ErrInvalidImage)
	}
	if s.avatar.MaxBytes > 0 && int64(len(data)) > s.avatar.MaxBytes {
		return domain.NewValidationError("avatar", "file is too large", domain.ErrInvalidImage)
	}

	png, err := imaging.NormalizeAvatar(data, s.avatar.Size)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return domain.NewValidationError("avatar", "please upload a jpg, jpeg or png image", domain.ErrInvalidImage)
		}
		return fmt.Errorf("failed to process avatar: %w", err)
	}

	if err := s.users.SetAvatar(ctx, userID, png); err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	return nil
}

// RemoveAvatar implements UserService.
func (s *UserServiceImpl) RemoveAvatar(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetAvatar(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	return nil
}

// GetAvatar implements UserService.
func (s *UserServiceImpl) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if !user.HasAvatar() {
		return nil, ErrAvatarNotFound
	}
	return user.Avatar, nil
}

func (s *UserServiceImpl) hashPassword(user *domain.User) error {
	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hash
	user.Password = ""
	return nil
}
