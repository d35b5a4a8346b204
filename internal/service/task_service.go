package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

// TaskService provides owner-scoped task operations.
type TaskService interface {
	// CreateTask creates a task owned by ownerID.
	CreateTask(ctx context.Context, ownerID uuid.UUID, description string, completed bool) (*domain.Task, error)

	// GetTask returns a task owned by ownerID.
	// A task belonging to another user is reported as store.ErrTaskNotFound.
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks returns the owner's tasks. A zero limit means the default page
	// size, and any limit is clamped to the configured maximum.
	ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.Task, error)

	// UpdateTask applies the allow-listed changes to an owned task.
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, upd domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask removes an owned task and returns it.
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	tasks       store.TaskStore
	maxPageSize int
	log         logger.Component
}

var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService. A non-positive maxPageSize
// falls back to domain.DefaultPageSize.
func NewTaskService(tasks store.TaskStore, maxPageSize int, log *slog.Logger) *TaskServiceImpl {
	if maxPageSize <= 0 {
		maxPageSize = domain.DefaultPageSize
	}
	return &TaskServiceImpl{
		tasks:       tasks,
		maxPageSize: maxPageSize,
		log:         logger.NewComponent(log, "task_service"),
	}
}

// CreateTask implements TaskService.
func (s *TaskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	description string,
	completed bool,
) (*domain.Task, error) {
	task, err := domain.NewTask(ownerID, description, completed)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.From(ctx).Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// GetTask implements TaskService.
func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return task, nil
}

// ListTasks implements TaskService.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.Task, error) {
	if query.Limit == 0 {
		query.Limit = domain.DefaultPageSize
	}
	if query.Limit > s.maxPageSize {
		query.Limit = s.maxPageSize
	}

	tasks, err := s.tasks.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask implements TaskService. The store applies only the fields
// present in upd, so concurrent updates of different fields both persist.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	upd domain.TaskUpdate,
) (*domain.Task, error) {
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return s.GetTask(ctx, ownerID, taskID)
	}

	task, err := s.tasks.Update(ctx, ownerID, taskID, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask implements TaskService.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.Delete(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	s.log.From(ctx).Debug("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}
