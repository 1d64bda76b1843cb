package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tasklog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskRepository is the MongoDB-backed task store.
type TaskRepository struct {
	tasksCollection *mongo.Collection
}

func NewTaskRepository(tasksCollection *mongo.Collection) *TaskRepository {
	return &TaskRepository{tasksCollection: tasksCollection}
}

func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) (*models.Task, error) {
	result, err := r.tasksCollection.InsertOne(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %v", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.tasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load task: %v", err)
	}
	return &task, nil
}

// ListForUser returns the tasks the user owns or is assigned to, newest
// first. Soft-deleted tasks are excluded unless includeDeleted is set.
func (r *TaskRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, includeDeleted bool) ([]models.Task, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"ownerId": userID},
			{"assignedToUserId": userID},
		},
	}
	if !includeDeleted {
		filter["deletedAt"] = bson.M{"$exists": false}
	}

	cursor, err := r.tasksCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// ApplyUpdate sets and unsets the given fields on one task and returns the
// updated document.
func (r *TaskRepository) ApplyUpdate(ctx context.Context, id primitive.ObjectID, set map[string]interface{}, unset []string) (*models.Task, error) {
	update := bson.M{}
	if len(set) > 0 {
		setDoc := bson.M{}
		for field, value := range set {
			setDoc[field] = value
		}
		update["$set"] = setDoc
	}
	if len(unset) > 0 {
		unsetDoc := bson.M{}
		for _, field := range unset {
			unsetDoc[field] = ""
		}
		update["$unset"] = unsetDoc
	}

	result, err := r.tasksCollection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, models.ErrNotFound
	}

	return r.FindByID(ctx, id)
}

// SetDeletedAt sets or clears the soft-delete marker.
func (r *TaskRepository) SetDeletedAt(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error {
	var update bson.M
	if deletedAt != nil {
		update = bson.M{"$set": bson.M{"deletedAt": *deletedAt, "updatedAt": time.Now()}}
	} else {
		update = bson.M{"$unset": bson.M{"deletedAt": ""}, "$set": bson.M{"updatedAt": time.Now()}}
	}

	result, err := r.tasksCollection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ConditionalClaim binds pending email assignments to a user, one document
// at a time. Each FindOneAndUpdate re-checks "assignedToUserId still unset"
// as part of its filter, and Mongo applies filter and update atomically per
// document, so two logins racing on the same email can never both claim the
// same task. The loop ends when no matching document remains.
func (r *TaskRepository) ConditionalClaim(ctx context.Context, email string, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"assignedToEmail":  email,
		"assignedToUserId": bson.M{"$exists": false},
		"deletedAt":        bson.M{"$exists": false},
	}
	update := bson.M{
		"$set":   bson.M{"assignedToUserId": userID, "updatedAt": time.Now()},
		"$unset": bson.M{"assignedToEmail": ""},
	}

	var claimed []primitive.ObjectID
	for {
		var task models.Task
		err := r.tasksCollection.FindOneAndUpdate(ctx, filter, update).Decode(&task)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return claimed, nil
			}
			return claimed, fmt.Errorf("conditional claim failed: %v", err)
		}
		claimed = append(claimed, task.ID)
	}
}
