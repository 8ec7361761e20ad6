package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Task validation errors. Each wraps ErrValidation.
var (
	ErrTaskIDEmpty       = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrTaskUserIDEmpty   = NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	ErrTaskTitleEmpty    = NewValidationError("title", "cannot be empty", nil)
	ErrTaskTitleTooLong  = NewValidationError("title", "must be at most 200 characters long", nil)
	ErrInvalidTaskStatus = NewValidationError("status", "must be one of Pending, Completed", nil)
	ErrInvalidPriority   = NewValidationError("priority", "must be one of Low, Medium, High", nil)
)

const maxTitleLength = 200

// DateLayout is the wire and storage format of a task's due date.
const DateLayout = "2006-01-02"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusPending marks a task that still has to be done.
	TaskStatusPending TaskStatus = "Pending"
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted TaskStatus = "Completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Priority expresses how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from Low (1) to High (3). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskFields holds the client-editable attributes of a task.
type TaskFields struct {
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	DueDate     *time.Time
}

// NewTask creates a task owned by userID. Empty status and priority default
// to Pending and Medium. A task created as Completed is stamped immediately.
func NewTask(userID uuid.UUID, fields TaskFields) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task.apply(fields, now)

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLength {
		return ErrTaskTitleTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Update replaces the editable fields. The owner never changes. On a
// validation failure the task is left as it was.
func (t *Task) Update(fields TaskFields) error {
	orig := *t
	now := time.Now().UTC()
	t.apply(fields, now)

	if err := t.Validate(); err != nil {
		*t = orig
		return err
	}

	t.UpdatedAt = now
	return nil
}

// MarkComplete moves a pending task to Completed and records when.
func (t *Task) MarkComplete(now time.Time) error {
	if t.Status == TaskStatusCompleted {
		return ErrTaskAlreadyCompleted
	}
	t.setStatus(TaskStatusCompleted, now)
	t.UpdatedAt = now
	return nil
}

// MarkPending moves a completed task back to Pending and clears its
// completion timestamp.
func (t *Task) MarkPending(now time.Time) error {
	if t.Status == TaskStatusPending {
		return ErrTaskAlreadyPending
	}
	t.setStatus(TaskStatusPending, now)
	t.UpdatedAt = now
	return nil
}

func (t *Task) apply(fields TaskFields, now time.Time) {
	t.Title = strings.TrimSpace(fields.Title)
	t.Description = fields.Description
	t.Priority = fields.Priority
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.DueDate = truncateDate(fields.DueDate)

	status := fields.Status
	if status == "" {
		status = t.Status
	}
	if status == "" {
		status = TaskStatusPending
	}
	t.setStatus(status, now)
}

// setStatus keeps CompletedAt consistent with Status.
func (t *Task) setStatus(status TaskStatus, now time.Time) {
	switch {
	case status == TaskStatusCompleted && t.Status != TaskStatusCompleted:
		completedAt := now
		t.CompletedAt = &completedAt
	case status != TaskStatusCompleted:
		t.CompletedAt = nil
	}
	t.Status = status
}

func truncateDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	y, m, day := d.Date()
	date := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &date
}
