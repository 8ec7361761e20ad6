package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskkeeper/internal/api/shared"
	"github.com/phrazzld/taskkeeper/internal/domain"
)

// RegisterRequest is the payload of POST /users. A role in the payload is
// ignored: new users are always regular users.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest is the payload of PUT /users/{id}. Omitted fields are
// left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,username"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role"     validate:"omitempty,oneof=user admin"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by the login endpoint.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken authorizes API calls; sent as "Authorization: Bearer <token>".
	AccessToken string `json:"token"`

	// RefreshToken obtains a new token pair from /auth/refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the RFC 3339 expiry of AccessToken.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest is the payload of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse is returned by the refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserEnvelope wraps a user with a confirmation message.
type UserEnvelope struct {
	Detail string       `json:"detail"`
	User   UserResponse `json:"user"`
}

// TaskRequest is the payload of POST /tasks and PUT /tasks/{id}. Any owner
// field sent by the client is ignored.
type TaskRequest struct {
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description"`
	Status      string  `json:"status"      validate:"omitempty,oneof=Pending Completed"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     *string `json:"due_date"    validate:"omitempty,datetime=2006-01-02"`
}

// Fields converts the request into domain task fields.
func (req TaskRequest) Fields() (domain.TaskFields, error) {
	fields := domain.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.Priority(req.Priority),
	}
	if req.DueDate != nil {
		due, err := shared.ParseDate("due_date", *req.DueDate)
		if err != nil {
			return domain.TaskFields{}, err
		}
		fields.DueDate = due
	}
	return fields, nil
}

// TaskResponse is the public representation of a task. User is the owner.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	User        uuid.UUID  `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *string    `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskEnvelope wraps a task with a confirmation message.
type TaskEnvelope struct {
	Detail string       `json:"detail"`
	Task   TaskResponse `json:"task"`
}

// MarkCompleteResponse is returned by POST /tasks/{id}/mark_complete.
type MarkCompleteResponse struct {
	Detail      string     `json:"detail"`
	ID          uuid.UUID  `json:"id"`
	CompletedAt *time.Time `json:"completed_at"`
}

// MarkPendingResponse is returned by POST /tasks/{id}/mark_pending.
type MarkPendingResponse struct {
	Detail string    `json:"detail"`
	ID     uuid.UUID `json:"id"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		IsAdmin:   u.IsAdmin(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		User:        t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     shared.FormatDate(t.DueDate),
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
