package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// MockTaskStore implements store.TaskStore in memory. Stored tasks are
// copied on the way in and out, so callers never share state with it.
type MockTaskStore struct {
	CreateFn       func(ctx context.Context, task *domain.Task) error
	GetForOwnerFn  func(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)
	ListFn         func(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)
	UpdateFn       func(ctx context.Context, task *domain.Task) error
	UpdateStatusFn func(ctx context.Context, task *domain.Task, from domain.TaskStatus) error
	DeleteFn       func(ctx context.Context, id, ownerID uuid.UUID) error

	// OwnerExists, when set, mimics the users foreign key on Create.
	OwnerExists func(ownerID uuid.UUID) bool

	mu    sync.Mutex
	tasks map[uuid.UUID]domain.Task
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]domain.Task)}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Seed stores task as-is.
func (m *MockTaskStore) Seed(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
}

// Get returns the stored task regardless of owner, for assertions.
func (m *MockTaskStore) Get(id uuid.UUID) (*domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	return &task, ok
}

// DeleteOwnedBy removes every task of ownerID. Wire it to
// MockUserStore.OnDelete to mimic the foreign key cascade.
func (m *MockTaskStore) DeleteOwnedBy(ownerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, task := range m.tasks {
		if task.UserID == ownerID {
			delete(m.tasks, id)
		}
	}
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if m.OwnerExists != nil && !m.OwnerExists(task.UserID) {
		return store.ErrUserNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
	return nil
}

// GetForOwner implements store.TaskStore.
func (m *MockTaskStore) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	if m.GetForOwnerFn != nil {
		return m.GetForOwnerFn(ctx, id, ownerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return &task, nil
}

// GetForUpdate implements store.TaskStore. Rows are not locked.
func (m *MockTaskStore) GetForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	return m.GetForOwner(ctx, id, ownerID)
}

// List implements store.TaskStore.
func (m *MockTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}

	ordering := filter.Ordering
	if ordering == "" {
		ordering = store.DefaultTaskOrdering
	}
	if !ordering.Valid() {
		return nil, store.ErrInvalidEntity
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	m.mu.Lock()
	tasks := []*domain.Task{}
	for _, task := range m.tasks {
		if task.UserID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		if filter.DueDate != nil && (task.DueDate == nil || !sameDate(*task.DueDate, *filter.DueDate)) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			continue
		}
		t := task
		tasks = append(tasks, &t)
	}
	m.mu.Unlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		if c := compareTasks(tasks[i], tasks[j], ordering); c != 0 {
			return c < 0
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	m.tasks[task.ID] = *task
	return nil
}

// UpdateStatus implements store.TaskStore.
func (m *MockTaskStore) UpdateStatus(ctx context.Context, task *domain.Task, from domain.TaskStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, task, from)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	if stored.Status != from {
		return store.ErrStatusConflict
	}
	stored.Status = task.Status
	stored.CompletedAt = task.CompletedAt
	stored.UpdatedAt = task.UpdatedAt
	m.tasks[task.ID] = stored
	return nil
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id, ownerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// WithTx implements store.TaskStore.
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}

// compareTasks orders a before b (-1), after (1) or as equal (0).
// Missing due dates sort last in both directions.
func compareTasks(a, b *domain.Task, ordering store.TaskOrdering) int {
	switch ordering {
	case store.OrderDueDateAsc, store.OrderDueDateDesc:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		c := a.DueDate.Compare(*b.DueDate)
		if ordering == store.OrderDueDateDesc {
			c = -c
		}
		return c
	case store.OrderPriorityAsc:
		return a.Priority.Rank() - b.Priority.Rank()
	case store.OrderPriorityDesc:
		return b.Priority.Rank() - a.Priority.Rank()
	}
	return 0
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
