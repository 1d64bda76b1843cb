package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusNew        TaskStatus = "New"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// Task is a logged task owned by the user who created it. A task can be
// assigned either to a registered user (AssignedToUserID) or to an email
// address whose owner has not registered yet (AssignedToEmail) - never both.
type Task struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OwnerID          primitive.ObjectID  `json:"ownerId" bson:"ownerId"`
	AssignedToUserID *primitive.ObjectID `json:"assignedToUserId,omitempty" bson:"assignedToUserId,omitempty"`
	AssignedToEmail  string              `json:"assignedToEmail,omitempty" bson:"assignedToEmail,omitempty"`
	Title            string              `json:"title" bson:"title"`
	Description      string              `json:"description" bson:"description"`
	FromName         string              `json:"fromName" bson:"fromName"`
	FromPhone        string              `json:"fromPhone" bson:"fromPhone"`
	Category         string              `json:"category" bson:"category"`
	Priority         string              `json:"priority" bson:"priority"`
	Status           TaskStatus          `json:"status" bson:"status"`
	Notes            string              `json:"notes" bson:"notes"`
	DeletedAt        *time.Time          `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsDeleted reports whether the task is soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}
