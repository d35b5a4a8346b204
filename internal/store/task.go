package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Every method is scoped by the owner's ID, so a query that ignores
// ownership cannot be expressed through it.
type TaskStore interface {
	// Create saves a new task. The task's OwnerID must reference an existing user.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by ownerID.
	// Returns ErrTaskNotFound if the task does not exist or belongs to someone else.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks filtered, sorted and paginated by query.
	// Without a sort the tasks come back in insertion order.
	List(ctx context.Context, query domain.TaskQuery) ([]*domain.Task, error)

	// Update writes the fields set in upd, plus updated_at, in one atomic
	// operation and returns the task as stored afterwards. Fields left nil are
	// not written, so concurrent updates of different fields both persist.
	// Returns ErrTaskNotFound if the task does not exist or belongs to someone else.
	Update(ctx context.Context, ownerID, id uuid.UUID, upd domain.TaskUpdate) (*domain.Task, error)

	// Delete removes an owned task and returns it.
	// Returns ErrTaskNotFound if the task does not exist or belongs to someone else.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// DeleteByOwner removes every task of the owner and reports how many were removed.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
