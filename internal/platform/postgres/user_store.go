package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

const userColumns = `id, name, email, age, hashed_password, avatar, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
// Session tokens live in the user_tokens table.
type PostgresUserStore struct {
	db store.DBTX
	// conn is nil when the store is bound to a transaction.
	conn *sql.DB
	log  logger.Component
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If log is nil, the default logger is used.
func NewPostgresUserStore(db *sql.DB, log *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresUserStore{
		db:   db,
		conn: db,
		log:  logger.NewComponent(log, "user_store"),
	}
}

// WithTx returns a copy of the store whose statements run inside tx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) *PostgresUserStore {
	return &PostgresUserStore{
		db:  tx,
		log: s.log,
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := s.log.From(ctx)

	if user.HashedPassword == "" {
		return domain.NewValidationError("password", "must be hashed before storing", domain.ErrInvalidPassword)
	}
	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, name, email, age, hashed_password, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Age,
		user.HashedPassword,
		nullableBytes(user.Avatar),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already exists", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "database error", MapError(err))
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getOne(ctx, "get_by_id", query, id)
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.getOne(ctx, "get_by_email", query, domain.NormalizeEmail(email))
}

// GetByIDAndToken implements store.UserStore.GetByIDAndToken.
func (s *PostgresUserStore) GetByIDAndToken(
	ctx context.Context,
	id uuid.UUID,
	token string,
) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM user_tokens t WHERE t.user_id = users.id AND t.token = $2)
	`
	return s.getOne(ctx, "get_by_token", query, id, token)
}

func (s *PostgresUserStore) getOne(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) (*domain.User, error) {
	log := s.log.From(ctx)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("operation", operation))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", operation, "database error", MapError(err))
	}

	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Age,
		&user.HashedPassword,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update implements store.UserStore.Update. Unset fields keep their stored
// value through COALESCE, so the row is read and written in one statement.
func (s *PostgresUserStore) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	log := s.log.From(ctx)

	if upd.Password != nil {
		return nil, domain.NewValidationError("password", "must be hashed before storing", domain.ErrInvalidPassword)
	}
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    age = COALESCE($4, age),
		    hashed_password = COALESCE($5, hashed_password),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRowContext(ctx, query,
		id,
		optional(upd.Name),
		optional(upd.Email),
		optional(upd.Age),
		optional(upd.HashedPassword),
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		if IsUniqueViolation(err) {
			return nil, store.ErrEmailExists
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, store.NewStoreError("user", "update", "database error", MapError(err))
	}

	log.Debug("user updated", slog.String("user_id", id.String()))
	return user, nil
}

// Delete implements store.UserStore.Delete. The user's tasks and the user
// are removed in one transaction; when the store is already bound to a
// transaction the caller's transaction is used.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.conn == nil {
		return s.deleteCascade(ctx, id)
	}

	return store.RunInTransaction(ctx, s.conn, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).deleteCascade(ctx, id)
	})
}

func (s *PostgresUserStore) deleteCascade(ctx context.Context, id uuid.UUID) error {
	log := s.log.From(ctx)

	removed, err := newTaskStore(s.db, s.log.Base()).DeleteByOwner(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", "delete", "database error", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.Int64("tasks_deleted", removed))
	return nil
}

// AddToken implements store.UserStore.AddToken.
func (s *PostgresUserStore) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, token, created_at) VALUES ($1, $2, $3)`,
		id, token, time.Now().UTC(),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		s.log.From(ctx).Error("failed to add token",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", "add_token", "database error", MapError(err))
	}
	return nil
}

// RemoveToken implements store.UserStore.RemoveToken.
func (s *PostgresUserStore) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`,
		id, token,
	)
	if err != nil {
		return store.NewStoreError("user", "remove_token", "database error", MapError(err))
	}
	return nil
}

// ClearTokens implements store.UserStore.ClearTokens.
func (s *PostgresUserStore) ClearTokens(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, id)
	if err != nil {
		return store.NewStoreError("user", "clear_tokens", "database error", MapError(err))
	}
	return nil
}

// SetAvatar implements store.UserStore.SetAvatar.
func (s *PostgresUserStore) SetAvatar(ctx context.Context, id uuid.UUID, image []byte) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET avatar = $1, updated_at = $2 WHERE id = $3`,
		nullableBytes(image), time.Now().UTC(), id,
	)
	if err != nil {
		return store.NewStoreError("user", "set_avatar", "database error", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Ping implements store.UserStore.Ping.
func (s *PostgresUserStore) Ping(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// optional passes an unset field as NULL so COALESCE keeps the stored value.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullableBytes stores an empty image as NULL.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
