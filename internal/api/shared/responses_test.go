package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/testutils"
)

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	RespondWithJSON(rec, req, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestRespondWithMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()

	RespondWithMessage(rec, req, http.StatusOK, "Task 'x' deleted successfully")

	assert.JSONEq(t, `{"detail":"Task 'x' deleted successfully"}`, rec.Body.String())
}

func TestRespondWithError(t *testing.T) {
	ctx := SetTraceID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Task not found", body.Detail)
	assert.Equal(t, GetTraceID(ctx), body.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel slog.Level
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: slog.LevelError},
		{name: "client error", status: http.StatusBadRequest, wantLevel: slog.LevelDebug},
		{
			name:      "elevated client error",
			status:    http.StatusUnauthorized,
			opts:      []ResponseOption{WithElevatedLogLevel()},
			wantLevel: slog.LevelWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutils.NewLogRecorder()
			ctx := logger.WithLogger(SetTraceID(httptest.NewRequest(http.MethodGet, "/", nil).Context()), rec.Logger())
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			err := errors.New("dial postgres://app:hunter22@db failed")
			RespondWithErrorAndLog(w, req, tt.status, "An unexpected error occurred", err, tt.opts...)

			assert.NotContains(t, w.Body.String(), "hunter22")
			assert.Contains(t, w.Body.String(), "An unexpected error occurred")

			entries := rec.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel.String(), entries[0]["level"])
			assert.NotContains(t, entries[0]["error"], "hunter22")
			assert.Equal(t, GetTraceID(ctx), entries[0]["trace_id"])
		})
	}
}
