package models

import "time"

// Audit actions emitted by the task and resolver services.
const (
	ActionTaskCreated         = "task-created"
	ActionTaskUpdated         = "task-updated"
	ActionStatusChanged       = "status-changed"
	ActionNotesChanged        = "notes-changed"
	ActionAssignmentChanged   = "assignment-changed"
	ActionAssignmentActivated = "assignment-activated"
	ActionTaskDeleted         = "task-deleted"
	ActionTaskRestored        = "task-restored"
)

// AuditEvent records a mutating operation on an entity. Events are emitted
// fire-and-forget; a failed write to the audit sink never aborts the
// operation that produced it.
type AuditEvent struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
}
