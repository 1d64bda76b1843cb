package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// TaskRole is the relationship between a user and a single task. Access
// decisions key off this value alone, there is no global role hierarchy.
type TaskRole string

const (
	RoleOwner    TaskRole = "owner"
	RoleAssignee TaskRole = "assignee"
	RoleNone     TaskRole = "none"
)

// RoleForTask derives the caller's role on the given task.
func RoleForTask(task *Task, userID primitive.ObjectID) TaskRole {
	if task.OwnerID == userID {
		return RoleOwner
	}
	if task.AssignedToUserID != nil && *task.AssignedToUserID == userID {
		return RoleAssignee
	}
	return RoleNone
}
