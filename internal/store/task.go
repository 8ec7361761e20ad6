package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskkeeper/internal/domain"
)

// TaskOrdering selects the sort order of a task listing.
type TaskOrdering string

const (
	OrderDueDateAsc   TaskOrdering = "due_date"
	OrderDueDateDesc  TaskOrdering = "-due_date"
	OrderPriorityAsc  TaskOrdering = "priority"
	OrderPriorityDesc TaskOrdering = "-priority"
)

// DefaultTaskOrdering is used when a listing does not ask for one.
const DefaultTaskOrdering = OrderDueDateAsc

// Valid reports whether o is a supported ordering.
func (o TaskOrdering) Valid() bool {
	switch o {
	case OrderDueDateAsc, OrderDueDateDesc, OrderPriorityAsc, OrderPriorityDesc:
		return true
	}
	return false
}

// TaskFilter narrows a task listing. OwnerID is mandatory; every other
// field is optional and combined with AND.
type TaskFilter struct {
	OwnerID  uuid.UUID
	Status   *domain.TaskStatus
	Priority *domain.Priority
	DueDate  *time.Time

	// Search matches a case-insensitive substring of title or description.
	Search   string
	Ordering TaskOrdering
}

// TaskStore defines the interface for task persistence. Every read and
// write is scoped to an owner; a task belonging to someone else behaves
// exactly like a missing one.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetForOwner retrieves the task with id if it belongs to ownerID.
	// Returns ErrTaskNotFound otherwise.
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// GetForUpdate is GetForOwner with the row locked until the surrounding
	// transaction ends. Only meaningful on a store returned by WithTx.
	GetForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching filter.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Update writes the mutable fields of task. The owner column is never
	// written. Returns ErrTaskNotFound if no row matches id and owner.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus writes task.Status and task.CompletedAt only if the
	// stored status still equals from. Returns ErrStatusConflict when the
	// row exists in another status and ErrTaskNotFound when it is missing.
	UpdateStatus(ctx context.Context, task *domain.Task, from domain.TaskStatus) error

	// Delete removes the task with id if it belongs to ownerID.
	// Returns ErrTaskNotFound otherwise.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
