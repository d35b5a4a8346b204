package mocks

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
)

type storedTask struct {
	seq  int64
	task domain.Task
}

// MockTaskStore implements store.TaskStore in memory for testing.
// It keeps insertion order and applies the same owner scoping,
// filtering, sorting and pagination as the database stores.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn func(ctx context.Context, task *domain.Task) error
	ListFn   func(ctx context.Context, query domain.TaskQuery) ([]*domain.Task, error)

	// LastQuery records the most recent query passed to List.
	LastQuery domain.TaskQuery

	mu    sync.Mutex
	seq   int64
	tasks map[uuid.UUID]*storedTask
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new, empty mock store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*storedTask)}
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	m.seq++
	m.tasks[task.ID] = &storedTask{seq: m.seq, task: *task}
	return nil
}

func (m *MockTaskStore) owned(ownerID, id uuid.UUID) (*storedTask, bool) {
	st, ok := m.tasks[id]
	if !ok || st.task.OwnerID != ownerID {
		return nil, false
	}
	return st, true
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.owned(ownerID, id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	task := st.task
	return &task, nil
}

// List implements store.TaskStore.
func (m *MockTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	m.mu.Lock()
	m.LastQuery = q
	m.mu.Unlock()

	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*storedTask
	for _, st := range m.tasks {
		if st.task.OwnerID != q.OwnerID {
			continue
		}
		if q.Completed != nil && st.task.Completed != *q.Completed {
			continue
		}
		matched = append(matched, st)
	}

	slices.SortFunc(matched, func(a, b *storedTask) int {
		if q.Sort != nil {
			c := compareField(q.Sort.Field, &a.task, &b.task)
			if q.Sort.Descending() {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.seq, b.seq)
	})

	if q.Skip >= len(matched) {
		return []*domain.Task{}, nil
	}
	matched = matched[q.Skip:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]*domain.Task, 0, len(matched))
	for _, st := range matched {
		task := st.task
		out = append(out, &task)
	}
	return out, nil
}

func compareField(field domain.TaskSortField, a, b *domain.Task) int {
	switch field {
	case domain.SortByDescription:
		return strings.Compare(a.Description, b.Description)
	case domain.SortByCompleted:
		switch {
		case a.Completed == b.Completed:
			return 0
		case b.Completed:
			return -1
		default:
			return 1
		}
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

// Update implements store.TaskStore. The update is applied under the
// store lock, matching the single-statement update of the database stores.
func (m *MockTaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	upd domain.TaskUpdate,
) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.owned(ownerID, id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if err := st.task.Apply(upd); err != nil {
		return nil, err
	}
	task := st.task
	return &task, nil
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.owned(ownerID, id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	task := st.task
	return &task, nil
}

// DeleteByOwner implements store.TaskStore.
func (m *MockTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, st := range m.tasks {
		if st.task.OwnerID == ownerID {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

// Count reports how many tasks ownerID has.
func (m *MockTaskStore) Count(ownerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, st := range m.tasks {
		if st.task.OwnerID == ownerID {
			n++
		}
	}
	return n
}
