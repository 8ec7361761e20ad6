// Package events carries task lifecycle notifications from the service
// layer to any number of handlers. Services emit a TaskEvent after each
// successful mutation without knowing who listens; AuditLogHandler records
// every event in the structured log.
package events
