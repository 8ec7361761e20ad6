package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened to a task.
type EventType string

const (
	TaskCreated   EventType = "task.created"
	TaskUpdated   EventType = "task.updated"
	TaskCompleted EventType = "task.completed"
	TaskReopened  EventType = "task.reopened"
	TaskDeleted   EventType = "task.deleted"
)

// TaskEvent records a single change to a task.
type TaskEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	TaskID     uuid.UUID `json:"task_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskEvent creates an event of the given type for a task owned by userID.
func NewTaskEvent(eventType EventType, taskID, userID uuid.UUID, occurredAt time.Time) *TaskEvent {
	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TaskID:     taskID,
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
	}
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter publishes events to handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}
