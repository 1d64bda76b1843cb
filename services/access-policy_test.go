package services

import (
	"testing"

	"tasklog-service/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func taskOwnedBy(ownerID primitive.ObjectID) *models.Task {
	return &models.Task{ID: primitive.NewObjectID(), OwnerID: ownerID}
}

func TestRoleDerivation(t *testing.T) {
	policy := NewAccessPolicy()
	owner := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	task := taskOwnedBy(owner)
	task.AssignedToUserID = &assignee

	assert.Equal(t, models.RoleOwner, policy.RoleFor(task, owner))
	assert.Equal(t, models.RoleAssignee, policy.RoleFor(task, assignee))
	assert.Equal(t, models.RoleNone, policy.RoleFor(task, stranger))
}

func TestReadAndUpdateVerdicts(t *testing.T) {
	policy := NewAccessPolicy()
	owner := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	task := taskOwnedBy(owner)
	task.AssignedToUserID = &assignee

	assert.True(t, policy.CanRead(task, owner))
	assert.True(t, policy.CanRead(task, assignee))
	assert.False(t, policy.CanRead(task, stranger))

	assert.True(t, policy.CanUpdate(task, owner))
	assert.True(t, policy.CanUpdate(task, assignee))
	assert.False(t, policy.CanUpdate(task, stranger))
}

func TestDeleteIsOwnerOnly(t *testing.T) {
	policy := NewAccessPolicy()
	owner := primitive.NewObjectID()
	assignee := primitive.NewObjectID()

	task := taskOwnedBy(owner)
	task.AssignedToUserID = &assignee

	assert.True(t, policy.CanDelete(task, owner))
	assert.False(t, policy.CanDelete(task, assignee))
	assert.False(t, policy.CanDelete(task, primitive.NewObjectID()))
}

func TestUnassignedTaskReadableByOwnerOnly(t *testing.T) {
	policy := NewAccessPolicy()
	owner := primitive.NewObjectID()

	task := taskOwnedBy(owner)
	task.AssignedToEmail = "pending@example.com"

	assert.True(t, policy.CanRead(task, owner))
	assert.False(t, policy.CanRead(task, primitive.NewObjectID()))
}

func TestFilterUpdatePayloadDropsDisallowedKeysSilently(t *testing.T) {
	policy := NewAccessPolicy()

	payload := map[string]interface{}{
		"title":  "New Title",
		"status": "Done",
	}

	filtered := policy.FilterUpdatePayload(models.RoleAssignee, payload)

	assert.Equal(t, map[string]interface{}{"status": "Done"}, filtered)
}

func TestFilterUpdatePayloadOwnerKeepsAllMutableFields(t *testing.T) {
	policy := NewAccessPolicy()

	payload := map[string]interface{}{
		"title":           "New Title",
		"fromPhone":       "+97455170700",
		"assignedToEmail": "someone@example.com",
		"ownerId":         "should-never-pass",
		"deletedAt":       "should-never-pass",
		"createdAt":       "should-never-pass",
	}

	filtered := policy.FilterUpdatePayload(models.RoleOwner, payload)

	assert.Equal(t, "New Title", filtered["title"])
	assert.Equal(t, "+97455170700", filtered["fromPhone"])
	assert.Equal(t, "someone@example.com", filtered["assignedToEmail"])
	assert.NotContains(t, filtered, "ownerId")
	assert.NotContains(t, filtered, "deletedAt")
	assert.NotContains(t, filtered, "createdAt")
}

func TestFilterUpdatePayloadNoneGetsNothing(t *testing.T) {
	policy := NewAccessPolicy()

	filtered := policy.FilterUpdatePayload(models.RoleNone, map[string]interface{}{
		"status": "Done",
		"notes":  "hi",
	})

	assert.Empty(t, filtered)
}

func TestAuditActionFor(t *testing.T) {
	policy := NewAccessPolicy()

	assert.Equal(t, models.ActionStatusChanged, policy.AuditActionFor(map[string]interface{}{"status": "Done"}))
	assert.Equal(t, models.ActionNotesChanged, policy.AuditActionFor(map[string]interface{}{"notes": "n"}))
	assert.Equal(t, models.ActionAssignmentChanged, policy.AuditActionFor(map[string]interface{}{"assignedToEmail": "a@b.c"}))
	assert.Equal(t, models.ActionTaskUpdated, policy.AuditActionFor(map[string]interface{}{"status": "Done", "notes": "n"}))
	assert.Equal(t, models.ActionTaskUpdated, policy.AuditActionFor(map[string]interface{}{"title": "t"}))
}
