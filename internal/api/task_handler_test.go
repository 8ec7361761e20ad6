package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskkeeper/internal/domain"
)

func (a *testAPI) createTask(t *testing.T, token string, body map[string]any) TaskResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[TaskEnvelope](t, rec).Task
}

func titlesOf(tasks []TaskResponse) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func TestTaskHandler_CreateTask(t *testing.T) {
	a := newTestAPI(t)
	alice, aliceToken := a.register(t, "alice")
	bob, _ := a.register(t, "bob")

	t.Run("owner forced to caller", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/tasks", aliceToken, map[string]any{
			"title":  "Buy milk",
			"status": "Pending",
			"user":   bob.ID,
			"owner":  bob.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decodeBody[TaskEnvelope](t, rec)
		assert.Equal(t, "Task created successfully", body.Detail)
		assert.Equal(t, alice.ID, body.Task.User)
		assert.Equal(t, "Pending", body.Task.Status)
		assert.Equal(t, "Medium", body.Task.Priority)
		assert.Nil(t, body.Task.CompletedAt)
	})

	t.Run("due date round trip", func(t *testing.T) {
		task := a.createTask(t, aliceToken, map[string]any{"title": "Taxes", "due_date": "2026-04-15"})
		require.NotNil(t, task.DueDate)
		assert.Equal(t, "2026-04-15", *task.DueDate)
	})

	t.Run("multibyte title", func(t *testing.T) {
		title := strings.Repeat("é", 150)
		task := a.createTask(t, aliceToken, map[string]any{"title": title})
		assert.Equal(t, title, task.Title)
	})

	t.Run("created completed", func(t *testing.T) {
		task := a.createTask(t, aliceToken, map[string]any{"title": "Done", "status": "Completed"})
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			body   map[string]any
			detail string
		}{
			{"missing title", map[string]any{"description": "x"}, "Invalid title: required field"},
			{"bad status", map[string]any{"title": "x", "status": "Archived"}, "Invalid status: must be one of Pending Completed"},
			{"bad priority", map[string]any{"title": "x", "priority": "Urgent"}, "Invalid priority: must be one of Low Medium High"},
			{"bad due date", map[string]any{"title": "x", "due_date": "15/04/2026"}, "Invalid due_date: must be a date in YYYY-MM-DD format"},
			{"blank title", map[string]any{"title": "   "}, "Invalid title: cannot be empty"},
			{"long multibyte title", map[string]any{"title": strings.Repeat("é", 201)}, "Invalid title: must be at most 200 characters long"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := a.do(t, http.MethodPost, "/tasks", aliceToken, tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, tt.detail, detailOf(t, rec))
			})
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/tasks", "", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication credentials were not provided", detailOf(t, rec))
	})
}

func TestTaskHandler_OwnerIsolation(t *testing.T) {
	a := newTestAPI(t)
	_, aliceToken := a.register(t, "alice")
	_, bobToken := a.register(t, "bob")
	_, rootToken := a.registerAdmin(t, "root")

	task := a.createTask(t, aliceToken, map[string]any{"title": "Private"})
	path := "/tasks/" + task.ID.String()

	for _, token := range []string{bobToken, rootToken} {
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path, token, nil).Code)
		assert.Equal(t, http.StatusNotFound,
			a.do(t, http.MethodPut, path, token, map[string]any{"title": "Mine"}).Code)
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, path, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, path+"/mark_complete", token, nil).Code)

		rec := a.do(t, http.MethodGet, "/tasks", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]TaskResponse](t, rec))
	}

	rec := a.do(t, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Private", decodeBody[TaskResponse](t, rec).Title)
}

func TestTaskHandler_UpdateAndDelete(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.register(t, "alice")
	task := a.createTask(t, token, map[string]any{"title": "Draft", "priority": "Low"})
	path := "/tasks/" + task.ID.String()

	rec := a.do(t, http.MethodPut, path, token, map[string]any{
		"title":    "Final",
		"priority": "High",
		"status":   "Completed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[TaskEnvelope](t, rec)
	assert.Equal(t, "Task updated successfully", body.Detail)
	assert.Equal(t, "Final", body.Task.Title)
	assert.Equal(t, "High", body.Task.Priority)
	assert.NotNil(t, body.Task.CompletedAt)

	rec = a.do(t, http.MethodPut, path, token, map[string]any{"title": "Final", "status": "Pending"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[TaskEnvelope](t, rec).Task.CompletedAt)

	rec = a.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task 'Final' deleted successfully", detailOf(t, rec))

	rec = a.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", detailOf(t, rec))
}

func TestTaskHandler_StatusTransitions(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.register(t, "alice")
	task := a.createTask(t, token, map[string]any{"title": "Cycle"})
	path := "/tasks/" + task.ID.String()

	rec := a.do(t, http.MethodPost, path+"/mark_pending", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task already pending", detailOf(t, rec))

	rec = a.do(t, http.MethodPost, path+"/mark_complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[MarkCompleteResponse](t, rec)
	assert.Equal(t, "Task marked completed", done.Detail)
	assert.Equal(t, task.ID, done.ID)
	assert.NotNil(t, done.CompletedAt)

	rec = a.do(t, http.MethodPost, path+"/mark_complete", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task already completed", detailOf(t, rec))

	rec = a.do(t, http.MethodPost, path+"/mark_pending", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task reverted to pending", decodeBody[MarkPendingResponse](t, rec).Detail)

	rec = a.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[TaskResponse](t, rec)
	assert.Equal(t, string(domain.TaskStatusPending), got.Status)
	assert.Nil(t, got.CompletedAt)

	rec = a.do(t, http.MethodPost, "/tasks/"+uuid.NewString()+"/mark_complete", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_ListTasks(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.register(t, "alice")

	a.createTask(t, token, map[string]any{"title": "Write report", "priority": "High", "due_date": "2026-03-05"})
	a.createTask(t, token, map[string]any{"title": "Buy milk", "description": "and a Report card", "priority": "Low"})
	a.createTask(t, token, map[string]any{"title": "File taxes", "status": "Completed", "due_date": "2026-03-01"})

	list := func(query string) []TaskResponse {
		rec := a.do(t, http.MethodGet, "/tasks"+query, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeBody[[]TaskResponse](t, rec)
	}

	assert.Equal(t, []string{"File taxes", "Write report", "Buy milk"}, titlesOf(list("")))
	assert.Equal(t, []string{"Write report", "File taxes", "Buy milk"}, titlesOf(list("?ordering=-due_date")))
	assert.Equal(t, []string{"Write report", "File taxes", "Buy milk"}, titlesOf(list("?ordering=-priority")))
	assert.Equal(t, []string{"Buy milk", "File taxes", "Write report"}, titlesOf(list("?ordering=priority")))
	assert.Equal(t, []string{"File taxes"}, titlesOf(list("?status=Completed")))
	assert.Equal(t, []string{"Buy milk"}, titlesOf(list("?priority=Low")))
	assert.Equal(t, []string{"Write report"}, titlesOf(list("?due_date=2026-03-05")))
	assert.ElementsMatch(t, []string{"Write report", "Buy milk"}, titlesOf(list("?search=REPORT")))
	assert.Equal(t, []string{"Write report"}, titlesOf(list("?search=report&priority=High")))

	for _, query := range []string{"?status=Archived", "?priority=Urgent", "?ordering=title", "?due_date=tomorrow"} {
		rec := a.do(t, http.MethodGet, "/tasks"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
