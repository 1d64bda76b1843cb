package repositories

import (
	"context"
	"fmt"

	"tasklog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the MongoDB-backed user store.
type UserRepository struct {
	usersCollection *mongo.Collection
}

func NewUserRepository(usersCollection *mongo.Collection) *UserRepository {
	return &UserRepository{usersCollection: usersCollection}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.usersCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.usersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.usersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user models.User) error {
	if _, err := r.usersCollection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %v", err)
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, email string) error {
	filter := bson.M{"email": email}
	update := bson.M{"$set": bson.M{"isActive": true}}
	if _, err := r.usersCollection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to activate user: %v", err)
	}
	return nil
}

func (r *UserRepository) SetSharePreference(ctx context.Context, id primitive.ObjectID, share bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"preferences.shareCallerDetails": share}}
	result, err := r.usersCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
