package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskkeeper/internal/api/middleware"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/mocks"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
)

const testPassword = "password123"

// testAPI wires the handlers to real services over in-memory stores. The
// JWT mock accepts tokens of the form "<user id>:<role>".
type testAPI struct {
	router  http.Handler
	users   *mocks.MockUserStore
	tasks   *mocks.MockTaskStore
	jwt     *mocks.MockJWTService
	userSvc service.UserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := testLogger()

	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore()
	users.OnDelete = tasks.DeleteOwnedBy

	userSvc, err := service.NewUserService(users, auth.NewBcryptVerifier(), logger)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(tasks, &mocks.MockTransactor{}, &mocks.MockEventEmitter{}, logger)
	require.NoError(t, err)

	jwt := &mocks.MockJWTService{
		ValidateTokenFn: parseFakeToken,
		GenerateTokenFn: func(_ context.Context, id uuid.UUID, role domain.Role) (string, error) {
			return fakeToken(id, role), nil
		},
		GenerateRefreshTokenFn: func(_ context.Context, id uuid.UUID, role domain.Role) (string, error) {
			return "refresh:" + fakeToken(id, role), nil
		},
		ValidateRefreshTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			rest, ok := strings.CutPrefix(token, "refresh:")
			if !ok {
				return nil, auth.ErrInvalidRefreshToken
			}
			return parseFakeToken(ctx, rest)
		},
	}

	userHandler := NewUserHandler(userSvc, logger)
	taskHandler := NewTaskHandler(taskSvc, logger)
	authHandler := NewAuthHandler(userSvc, jwt, logger)
	authMiddleware := middleware.NewAuthMiddleware(jwt)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(logger))
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.RefreshToken)
	r.Post("/users", userHandler.CreateUser)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}", userHandler.UpdateUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Post("/tasks/{id}/mark_complete", taskHandler.MarkComplete)
		r.Post("/tasks/{id}/mark_pending", taskHandler.MarkPending)
	})

	return &testAPI{router: r, users: users, tasks: tasks, jwt: jwt, userSvc: userSvc}
}

func fakeToken(id uuid.UUID, role domain.Role) string {
	return fmt.Sprintf("%s:%s", id, role)
}

func parseFakeToken(_ context.Context, token string) (*auth.Claims, error) {
	idPart, rolePart, ok := strings.Cut(token, ":")
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: id, Role: domain.Role(rolePart)}, nil
}

// register creates a user through the service and returns it with a token.
func (a *testAPI) register(t *testing.T, username string) (*domain.User, string) {
	t.Helper()
	user, err := a.userSvc.Register(context.Background(), username, testPassword)
	require.NoError(t, err)
	return user, fakeToken(user.ID, user.Role)
}

func (a *testAPI) registerAdmin(t *testing.T, username string) (*domain.User, string) {
	t.Helper()
	a.register(t, username)
	user, err := a.userSvc.Promote(context.Background(), username)
	require.NoError(t, err)
	return user, fakeToken(user.ID, user.Role)
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rec)["detail"].(string)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// serveDirect calls h without the auth middleware.
func serveDirect(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}
