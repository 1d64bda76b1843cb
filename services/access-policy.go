package services

import (
	"tasklog-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessPolicy computes authorization verdicts for task operations and
// filters update payloads down to the fields the caller's role may touch.
// It is pure and safe for concurrent use.
type AccessPolicy struct{}

func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// allowedUpdateFields is the whole permission matrix: one allow-list per
// role, keyed by JSON field name. Owners may edit every mutable content
// field plus the assignment fields; assignees only status and notes.
var allowedUpdateFields = map[models.TaskRole][]string{
	models.RoleOwner: {
		"title", "description", "fromName", "fromPhone", "category",
		"priority", "status", "notes", "assignedToUserId", "assignedToEmail",
	},
	models.RoleAssignee: {"status", "notes"},
	models.RoleNone:     {},
}

func (p *AccessPolicy) RoleFor(task *models.Task, userID primitive.ObjectID) models.TaskRole {
	return models.RoleForTask(task, userID)
}

// CanRead allows owners and assignees to read a task.
func (p *AccessPolicy) CanRead(task *models.Task, userID primitive.ObjectID) bool {
	role := models.RoleForTask(task, userID)
	return role == models.RoleOwner || role == models.RoleAssignee
}

// CanUpdate allows owners and assignees to update a task; which fields each
// may change is decided separately by FilterUpdatePayload.
func (p *AccessPolicy) CanUpdate(task *models.Task, userID primitive.ObjectID) bool {
	role := models.RoleForTask(task, userID)
	return role == models.RoleOwner || role == models.RoleAssignee
}

// CanDelete allows only the owner to soft-delete or restore a task.
func (p *AccessPolicy) CanDelete(task *models.Task, userID primitive.ObjectID) bool {
	return models.RoleForTask(task, userID) == models.RoleOwner
}

// AllowedUpdateFields returns the update allow-list for a role.
func (p *AccessPolicy) AllowedUpdateFields(role models.TaskRole) []string {
	return allowedUpdateFields[role]
}

// FilterUpdatePayload returns the subset of payload whose keys the role may
// change. Disallowed keys are dropped silently, not rejected: assignees
// routinely submit full-form payloads and only their permitted subset takes
// effect.
func (p *AccessPolicy) FilterUpdatePayload(role models.TaskRole, payload map[string]interface{}) map[string]interface{} {
	allowed := allowedUpdateFields[role]
	filtered := make(map[string]interface{})
	for _, field := range allowed {
		if value, ok := payload[field]; ok {
			filtered[field] = value
		}
	}
	return filtered
}

// AuditActionFor names the audit action for an applied change set.
func (p *AccessPolicy) AuditActionFor(changed map[string]interface{}) string {
	_, hasStatus := changed["status"]
	_, hasNotes := changed["notes"]
	_, hasAssignedUser := changed["assignedToUserId"]
	_, hasAssignedEmail := changed["assignedToEmail"]

	switch {
	case hasAssignedUser || hasAssignedEmail:
		return models.ActionAssignmentChanged
	case hasStatus && len(changed) == 1:
		return models.ActionStatusChanged
	case hasNotes && len(changed) == 1:
		return models.ActionNotesChanged
	default:
		return models.ActionTaskUpdated
	}
}
