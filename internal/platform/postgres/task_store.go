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

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// sortColumns maps sortable task fields onto columns. Only these
// identifiers are ever interpolated into ORDER BY.
var sortColumns = map[domain.TaskSortField]string{
	domain.SortByDescription: "description",
	domain.SortByCompleted:   "completed",
	domain.SortByCreatedAt:   "created_at",
	domain.SortByUpdatedAt:   "updated_at",
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db  store.DBTX
	log logger.Component
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction managed by the caller.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return newTaskStore(db, log)
}

func newTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:  db,
		log: logger.NewComponent(log, "task_store"),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := s.log.From(ctx)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, owner_id, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("task owner does not exist", slog.String("owner_id", task.OwnerID.String()))
			return fmt.Errorf("%w: owner %s", store.ErrInvalidEntity, task.OwnerID)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "database error", MapError(err))
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	where, args := ownerAndID(ownerID, id)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, s.mapTaskError(ctx, "get", id, err)
	}
	return task, nil
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	log := s.log.From(ctx)

	if err := q.Validate(); err != nil {
		return nil, err
	}

	query, args := buildListQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", q.OwnerID.String()))
		return nil, store.NewStoreError("task", "list", "database error", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, q.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "scan failed", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "row iteration failed", MapError(err))
	}

	return tasks, nil
}

// buildListQuery renders q as SQL. Insertion order (created_at, seq) is the
// default and the final tie-breaker of every explicit sort.
func buildListQuery(q domain.TaskQuery) (string, []any) {
	where, args := ownerScope(q.OwnerID)

	if q.Completed != nil {
		args = append(args, *q.Completed)
		where += fmt.Sprintf(" AND completed = $%d", len(args))
	}

	order := "created_at ASC, seq ASC"
	if q.Sort != nil {
		if col, ok := sortColumns[q.Sort.Field]; ok {
			dir := "ASC"
			if q.Sort.Descending() {
				dir = "DESC"
			}
			order = fmt.Sprintf("%s %s, seq ASC", col, dir)
		}
	}

	args = append(args, q.Limit, q.Skip)
	query := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns, where, order, len(args)-1, len(args),
	)
	return query, args
}

// Update implements store.TaskStore.Update. Unset fields keep their stored
// value through COALESCE, so the row is read and written in one statement.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	upd domain.TaskUpdate,
) (*domain.Task, error) {
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}

	where, args := ownerAndID(ownerID, id)
	args = append(args, optional(upd.Description), optional(upd.Completed), time.Now().UTC())
	n := len(args)
	query := fmt.Sprintf(
		`UPDATE tasks SET description = COALESCE($%d, description), completed = COALESCE($%d, completed), updated_at = $%d WHERE %s RETURNING %s`,
		n-2, n-1, n, where, taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, s.mapTaskError(ctx, "update", id, err)
	}
	return task, nil
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	where, args := ownerAndID(ownerID, id)
	query := `DELETE FROM tasks WHERE ` + where + ` RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, s.mapTaskError(ctx, "delete", id, err)
	}

	s.log.From(ctx).Debug("task deleted",
		slog.String("task_id", id.String()))
	return task, nil
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner.
func (s *PostgresTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	where, args := ownerScope(ownerID)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE `+where, args...)
	if err != nil {
		s.log.From(ctx).Error("failed to delete owner tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return 0, store.NewStoreError("task", "delete_by_owner", "database error", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *PostgresTaskStore) mapTaskError(ctx context.Context, operation string, id uuid.UUID, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrTaskNotFound
	}
	s.log.From(ctx).Error("task operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("task_id", id.String()))
	return store.NewStoreError("task", operation, "database error", MapError(err))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
