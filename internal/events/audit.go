package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskkeeper/internal/platform/logger"
)

// AuditLogHandler writes every task event to the structured log.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates an AuditLogHandler.
func NewAuditLogHandler(l *slog.Logger) *AuditLogHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuditLogHandler{logger: l.With(slog.String("component", "audit"))}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	logger.FromContextOrDefault(ctx, h.logger).InfoContext(ctx, "task event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.String("task_id", event.TaskID.String()),
		slog.String("user_id", event.UserID.String()),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}

var _ EventHandler = (*AuditLogHandler)(nil)
