package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/store"
	"github.com/stretchr/testify/require"
)

// TestPassword is the plaintext password of users built by NewTestUser.
const TestPassword = "password123"

// NewTestUser builds a valid regular user with a unique username.
func NewTestUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("user_"+uuid.NewString()[:8], TestPassword)
	require.NoError(t, err)
	return user
}

// MustCreateUser builds a user and saves it through users.
func MustCreateUser(ctx context.Context, t *testing.T, users store.UserStore) *domain.User {
	t.Helper()
	user := NewTestUser(t)
	require.NoError(t, users.Create(ctx, user))
	return user
}

// TaskOption customises a task built by NewTestTask.
type TaskOption func(*domain.TaskFields)

// WithTitle sets the task title.
func WithTitle(title string) TaskOption {
	return func(f *domain.TaskFields) { f.Title = title }
}

// WithDescription sets the task description.
func WithDescription(description string) TaskOption {
	return func(f *domain.TaskFields) { f.Description = description }
}

// WithStatus sets the initial status.
func WithStatus(status domain.TaskStatus) TaskOption {
	return func(f *domain.TaskFields) { f.Status = status }
}

// WithPriority sets the priority.
func WithPriority(priority domain.Priority) TaskOption {
	return func(f *domain.TaskFields) { f.Priority = priority }
}

// WithDueDate sets the due date from a YYYY-MM-DD string.
func WithDueDate(date string) TaskOption {
	return func(f *domain.TaskFields) {
		d, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			panic(err)
		}
		f.DueDate = &d
	}
}

// NewTestTask builds a valid task owned by ownerID.
func NewTestTask(t *testing.T, ownerID uuid.UUID, opts ...TaskOption) *domain.Task {
	t.Helper()
	fields := domain.TaskFields{Title: "Task " + uuid.NewString()[:8]}
	for _, opt := range opts {
		opt(&fields)
	}
	task, err := domain.NewTask(ownerID, fields)
	require.NoError(t, err)
	return task
}

// MustCreateTask builds a task and saves it through tasks.
func MustCreateTask(
	ctx context.Context,
	t *testing.T,
	tasks store.TaskStore,
	ownerID uuid.UUID,
	opts ...TaskOption,
) *domain.Task {
	t.Helper()
	task := NewTestTask(t, ownerID, opts...)
	require.NoError(t, tasks.Create(ctx, task))
	return task
}
