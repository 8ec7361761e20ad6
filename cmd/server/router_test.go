package main

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskkeeper/internal/api"
	apiMiddleware "github.com/phrazzld/taskkeeper/internal/api/middleware"
)

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(apiMiddleware.TraceIDHeader))
}

func TestRouter_Registration(t *testing.T) {
	s := newTestServer(t)

	t.Run("no credentials required", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
			"username": "alice",
			"password": testPassword,
			"role":     "admin",
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decode[api.UserEnvelope](t, rec)
		assert.Equal(t, "User created successfully", body.Detail)
		assert.Equal(t, "alice", body.User.Username)
		assert.Equal(t, "user", body.User.Role)
		assert.False(t, body.User.IsAdmin)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
			"username": "alice",
			"password": testPassword,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "A user with that username already exists", detail(t, rec))
	})

	t.Run("short password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
			"username": "bob",
			"password": "short",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, detail(t, rec), "password")
	})
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	t.Run("missing credentials", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication credentials were not provided", detail(t, rec))
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks", "not-a-jwt", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", detail(t, rec))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": "alice",
			"password": "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", detail(t, rec))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		tokens := s.login(t, "alice")

		rec := s.do(t, http.MethodGet, "/tasks", tokens.RefreshToken, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh issues a working access token", func(t *testing.T) {
		tokens := s.login(t, "alice")

		rec := s.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refresh_token": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		refreshed := decode[api.RefreshTokenResponse](t, rec)
		assert.NotEmpty(t, refreshed.RefreshToken)
		assert.NotEmpty(t, refreshed.ExpiresAt)

		rec = s.do(t, http.MethodGet, "/tasks", refreshed.AccessToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_UserVisibility(t *testing.T) {
	s := newTestServer(t)
	alice, aliceTokens := s.signup(t, "alice")
	bob, _ := s.signup(t, "bob")
	_, adminTokens := s.signupAdmin(t, "root")

	t.Run("regular user lists only self", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users", aliceTokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		users := decode[[]api.UserResponse](t, rec)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)
	})

	t.Run("admin lists everyone", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users", adminTokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]api.UserResponse](t, rec), 3)
	})

	t.Run("regular user cannot see another user", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/"+bob.ID.String(), aliceTokens.AccessToken, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", detail(t, rec))
	})

	t.Run("admin deletes another user", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/users/"+bob.ID.String(), adminTokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "User 'bob' deleted successfully", detail(t, rec))
	})
}

func TestRouter_TokenOutlivesAccount(t *testing.T) {
	s := newTestServer(t)
	user, tokens := s.signup(t, "alice")
	_, adminTokens := s.signupAdmin(t, "root")

	rec := s.do(t, http.MethodDelete, "/users/"+user.ID.String(), adminTokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/tasks", tokens.AccessToken, map[string]any{"title": "Orphan"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", detail(t, rec))
}

func TestRouter_TaskOwnership(t *testing.T) {
	s := newTestServer(t)
	alice, aliceTokens := s.signup(t, "alice")
	bob, bobTokens := s.signup(t, "bob")

	task := s.createTask(t, aliceTokens.AccessToken, map[string]any{
		"title":    "Write report",
		"priority": "High",
		"user":     bob.ID,
	})

	t.Run("owner is the caller", func(t *testing.T) {
		assert.Equal(t, alice.ID, task.User)
		assert.Equal(t, "Pending", task.Status)
	})

	t.Run("other user cannot read", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks/"+task.ID.String(), bobTokens.AccessToken, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Task not found", detail(t, rec))
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/tasks/"+task.ID.String(), bobTokens.AccessToken, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		_, exists := s.tasks.Get(task.ID)
		assert.True(t, exists)
	})

	t.Run("other user's list is empty", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks", bobTokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]api.TaskResponse](t, rec))
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks/"+uuid.NewString(), aliceTokens.AccessToken, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/tasks/not-a-uuid", aliceTokens.AccessToken, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/tasks/"+task.ID.String(), aliceTokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Task 'Write report' deleted successfully", detail(t, rec))
	})
}

func TestRouter_StatusTransitions(t *testing.T) {
	s := newTestServer(t)
	_, tokens := s.signup(t, "alice")
	task := s.createTask(t, tokens.AccessToken, map[string]any{"title": "Ship release"})
	base := "/tasks/" + task.ID.String()

	rec := s.do(t, http.MethodPost, base+"/mark_complete", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[api.MarkCompleteResponse](t, rec)
	assert.Equal(t, "Task marked completed", completed.Detail)
	require.NotNil(t, completed.CompletedAt)

	rec = s.do(t, http.MethodPost, base+"/mark_complete", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task already completed", detail(t, rec))

	rec = s.do(t, http.MethodPost, base+"/mark_pending", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task reverted to pending", detail(t, rec))

	rec = s.do(t, http.MethodPost, base+"/mark_pending", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task already pending", detail(t, rec))

	rec = s.do(t, http.MethodGet, base, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[api.TaskResponse](t, rec)
	assert.Equal(t, "Pending", current.Status)
	assert.Nil(t, current.CompletedAt)
}

func TestRouter_TaskQueries(t *testing.T) {
	s := newTestServer(t)
	_, tokens := s.signup(t, "alice")
	token := tokens.AccessToken

	s.createTask(t, token, map[string]any{"title": "Buy milk", "priority": "Low", "due_date": "2026-03-01"})
	s.createTask(t, token, map[string]any{"title": "File taxes", "priority": "High", "description": "before april"})
	s.createTask(t, token, map[string]any{"title": "Call plumber", "priority": "Medium", "status": "Completed"})

	list := func(t *testing.T, query string) []string {
		t.Helper()
		rec := s.do(t, http.MethodGet, "/tasks"+query, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []string
		for _, task := range decode[[]api.TaskResponse](t, rec) {
			out = append(out, task.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Buy milk", "File taxes"}, list(t, "?status=Pending"))
	assert.Equal(t, []string{"File taxes"}, list(t, "?priority=High"))
	assert.Equal(t, []string{"Buy milk"}, list(t, "?due_date=2026-03-01"))
	assert.Equal(t, []string{"File taxes"}, list(t, "?search=april"))
	assert.Equal(t, []string{"File taxes", "Call plumber", "Buy milk"}, list(t, "?ordering=-priority"))

	rec := s.do(t, http.MethodGet, "/tasks?ordering=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
