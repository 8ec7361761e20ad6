package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskkeeper/internal/api/shared"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// TaskHandler handles /tasks requests. Every operation is scoped to the
// authenticated caller.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// parseTaskQuery reads the listing filters from the query string.
func parseTaskQuery(r *http.Request) (service.TaskQuery, error) {
	q := r.URL.Query()
	query := service.TaskQuery{
		Search:   q.Get("search"),
		Ordering: store.TaskOrdering(q.Get("ordering")),
	}

	if v := q.Get("status"); v != "" {
		status := domain.TaskStatus(v)
		query.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.Priority(v)
		query.Priority = &priority
	}
	due, err := shared.ParseDate("due_date", q.Get("due_date"))
	if err != nil {
		return service.TaskQuery{}, err
	}
	query.DueDate = due

	return query, query.Validate()
}

// ListTasks handles GET /tasks. Supported query parameters are status,
// priority, due_date, search and ordering.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := handlePrincipal(w, r, log)
	if !ok {
		return
	}

	query, err := parseTaskQuery(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), caller, query)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CreateTask handles POST /tasks. The owner is always the caller.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := handlePrincipal(w, r, log)
	if !ok {
		return
	}

	fields, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), caller, fields)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TaskEnvelope{
		Detail: "Task created successfully",
		Task:   taskToResponse(task),
	})
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	fields, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), caller, id, fields)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{
		Detail: "Task updated successfully",
		Task:   taskToResponse(task),
	})
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.DeleteTask(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithMessage(w, r, http.StatusOK,
		fmt.Sprintf("Task '%s' deleted successfully", task.Title))
}

// MarkComplete handles POST /tasks/{id}/mark_complete.
func (h *TaskHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.MarkComplete(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MarkCompleteResponse{
		Detail:      "Task marked completed",
		ID:          task.ID,
		CompletedAt: task.CompletedAt,
	})
}

// MarkPending handles POST /tasks/{id}/mark_pending.
func (h *TaskHandler) MarkPending(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.MarkPending(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MarkPendingResponse{
		Detail: "Task reverted to pending",
		ID:     task.ID,
	})
}

func (h *TaskHandler) decodeTask(w http.ResponseWriter, r *http.Request) (domain.TaskFields, bool) {
	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return domain.TaskFields{}, false
	}

	fields, err := req.Fields()
	if err != nil {
		HandleAPIError(w, r, err)
		return domain.TaskFields{}, false
	}
	return fields, true
}
