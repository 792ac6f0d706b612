package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"gymdesk/internal/domain"
)

// MongoGymRepository implements domain.GymRepository. Gym accounts are
// created by the external auth service; this repository only reads them.
type MongoGymRepository struct {
	collection *mongo.Collection
}

func NewMongoGymRepository(db *mongo.Database) *MongoGymRepository {
	return &MongoGymRepository{collection: db.Collection("gyms")}
}

func (r *MongoGymRepository) GetByID(ctx context.Context, id string) (*domain.Gym, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid gym id: %w", err)
	}
	return r.getOne(ctx, bson.M{"_id": objID})
}

func (r *MongoGymRepository) GetByEmail(ctx context.Context, email string) (*domain.Gym, error) {
	return r.getOne(ctx, bson.M{"email": email})
}

func (r *MongoGymRepository) getOne(ctx context.Context, filter bson.M) (*domain.Gym, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, filter).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get gym: %w", err)
	}

	gym := &domain.Gym{}
	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		gym.ID = oid.Hex()
	}
	if v, ok := raw["email"].(string); ok {
		gym.Email = v
	}
	if v, ok := raw["username"].(string); ok {
		gym.Username = v
	}
	if v, ok := raw["gym_name"].(string); ok {
		gym.GymName = v
	}
	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		gym.CreatedAt = v.Time()
	}
	return gym, nil
}
