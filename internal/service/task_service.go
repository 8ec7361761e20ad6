package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/events"
	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// TaskQuery holds the optional filters of a task listing.
type TaskQuery struct {
	Status   *domain.TaskStatus
	Priority *domain.Priority
	DueDate  *time.Time
	Search   string
	Ordering store.TaskOrdering
}

// Validate checks the filter values. An empty ordering is allowed.
func (q TaskQuery) Validate() error {
	if q.Status != nil && !q.Status.Valid() {
		return domain.ErrInvalidTaskStatus
	}
	if q.Priority != nil && !q.Priority.Valid() {
		return domain.ErrInvalidPriority
	}
	if q.Ordering != "" && !q.Ordering.Valid() {
		return domain.NewValidationError("ordering",
			"must be one of due_date, -due_date, priority, -priority", nil)
	}
	return nil
}

// TaskService defines the operations on a caller's tasks. Tasks belonging
// to another user are reported as store.ErrTaskNotFound.
type TaskService interface {
	// ListTasks returns the caller's tasks matching query.
	ListTasks(ctx context.Context, caller domain.Principal, query TaskQuery) ([]*domain.Task, error)

	// GetTask retrieves one of the caller's tasks.
	GetTask(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error)

	// CreateTask creates a task owned by the caller.
	CreateTask(ctx context.Context, caller domain.Principal, fields domain.TaskFields) (*domain.Task, error)

	// UpdateTask replaces the editable fields of one of the caller's tasks.
	UpdateTask(ctx context.Context, caller domain.Principal, id uuid.UUID, fields domain.TaskFields) (*domain.Task, error)

	// DeleteTask removes one of the caller's tasks and returns it.
	DeleteTask(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error)

	// MarkComplete moves a pending task to Completed. It fails with
	// domain.ErrTaskAlreadyCompleted when the task is already done.
	MarkComplete(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error)

	// MarkPending moves a completed task back to Pending. It fails with
	// domain.ErrTaskAlreadyPending when the task is not completed.
	MarkPending(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error)
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	transactor store.Transactor
	emitter    events.EventEmitter
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates a TaskService. emitter may be nil, in which case
// no events are published.
func NewTaskService(
	tasks store.TaskStore,
	transactor store.Transactor,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if transactor == nil {
		return nil, domain.NewValidationError("transactor", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:      tasks,
		transactor: transactor,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "task_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// isExpected reports whether err is part of the task service contract and
// should reach the caller unwrapped.
func isExpected(err error) bool {
	return errors.Is(err, store.ErrTaskNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrTaskAlreadyCompleted) ||
		errors.Is(err, domain.ErrTaskAlreadyPending) ||
		errors.Is(err, ErrNotOwned)
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	caller domain.Principal,
	query TaskQuery,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ordering := query.Ordering
	if ordering == "" {
		ordering = store.DefaultTaskOrdering
	}

	tasks, err := s.tasks.List(ctx, store.TaskFilter{
		OwnerID:  caller.UserID,
		Status:   query.Status,
		Priority: query.Priority,
		DueDate:  query.DueDate,
		Search:   strings.TrimSpace(query.Search),
		Ordering: ordering,
	})
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", caller.UserID.String()))
		return nil, newTaskServiceError("list", "failed to list tasks", err)
	}
	return tasks, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.ownedTask(ctx, s.tasks.GetForOwner, caller, id, "get")
}

// ownedTask loads id through get and re-checks ownership.
func (s *taskServiceImpl) ownedTask(
	ctx context.Context,
	get func(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error),
	caller domain.Principal,
	id uuid.UUID,
	op string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := get(ctx, id, caller.UserID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, err
		}
		log.Error("failed to load task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, newTaskServiceError(op, "failed to load task", err)
	}
	if !domain.IsOwner(caller, task) {
		log.Warn("task owner mismatch",
			slog.String("task_id", id.String()),
			slog.String("user_id", caller.UserID.String()))
		return nil, ErrNotOwned
	}
	return task, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	caller domain.Principal,
	fields domain.TaskFields,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	task, err := domain.NewTask(caller.UserID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		if isExpected(err) {
			return nil, err
		}
		if errors.Is(err, store.ErrUserNotFound) {
			// The token outlived its account.
			log.Warn("task owner no longer exists", slog.String("user_id", caller.UserID.String()))
			return nil, domain.ErrUnauthorized
		}
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, newTaskServiceError("create", "failed to create task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	s.emit(ctx, events.TaskCreated, task)
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	caller domain.Principal,
	id uuid.UUID,
	fields domain.TaskFields,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	var updated *domain.Task
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		task, err := s.ownedTask(ctx, tasks.GetForUpdate, caller, id, "update")
		if err != nil {
			return err
		}
		if err := task.Update(fields); err != nil {
			return err
		}
		if err := tasks.Update(ctx, task); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		if isExpected(err) {
			return nil, err
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, newTaskServiceError("update", "failed to update task", err)
	}

	log.Info("task updated", slog.String("task_id", id.String()))
	s.emit(ctx, events.TaskUpdated, updated)
	return updated, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	task, err := s.ownedTask(ctx, s.tasks.GetForOwner, caller, id, "delete")
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, id, caller.UserID); err != nil {
		if isExpected(err) {
			return nil, err
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, newTaskServiceError("delete", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	s.emit(ctx, events.TaskDeleted, task)
	return task, nil
}

// MarkComplete implements TaskService.MarkComplete
func (s *taskServiceImpl) MarkComplete(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error) {
	return s.transition(ctx, caller, id, "mark_complete", domain.TaskStatusCompleted)
}

// MarkPending implements TaskService.MarkPending
func (s *taskServiceImpl) MarkPending(ctx context.Context, caller domain.Principal, id uuid.UUID) (*domain.Task, error) {
	return s.transition(ctx, caller, id, "mark_pending", domain.TaskStatusPending)
}

// transition moves a task to target. The write is conditional on the
// status that was read, so of two concurrent transitions only one succeeds.
func (s *taskServiceImpl) transition(
	ctx context.Context,
	caller domain.Principal,
	id uuid.UUID,
	op string,
	target domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	task, err := s.ownedTask(ctx, s.tasks.GetForOwner, caller, id, op)
	if err != nil {
		return nil, err
	}

	from := task.Status
	now := s.now()
	alreadyErr := domain.ErrTaskAlreadyPending
	eventType := events.TaskReopened
	if target == domain.TaskStatusCompleted {
		alreadyErr = domain.ErrTaskAlreadyCompleted
		eventType = events.TaskCompleted
		err = task.MarkComplete(now)
	} else {
		err = task.MarkPending(now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateStatus(ctx, task, from); err != nil {
		switch {
		case errors.Is(err, store.ErrStatusConflict):
			log.Debug("lost status transition race", slog.String("task_id", id.String()))
			return nil, alreadyErr
		case errors.Is(err, store.ErrTaskNotFound):
			return nil, err
		}
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, newTaskServiceError(op, "failed to update task status", err)
	}

	log.Info("task status changed",
		slog.String("task_id", id.String()),
		slog.String("status", string(task.Status)))
	s.emit(ctx, eventType, task)
	return task, nil
}

func (s *taskServiceImpl) emit(ctx context.Context, eventType events.EventType, task *domain.Task) {
	if s.emitter == nil {
		return
	}
	event := events.NewTaskEvent(eventType, task.ID, task.UserID, s.now())
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit task event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)),
			slog.String("task_id", task.ID.String()))
	}
}
