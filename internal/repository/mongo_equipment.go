package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gymdesk/internal/domain"
)

// MongoEquipmentRepository implements domain.EquipmentRepository
type MongoEquipmentRepository struct {
	collection *mongo.Collection
}

func NewMongoEquipmentRepository(db *mongo.Database) *MongoEquipmentRepository {
	return &MongoEquipmentRepository{collection: db.Collection("equipment")}
}

func (r *MongoEquipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	now := time.Now().UTC()
	eq.CreatedAt = now
	eq.UpdatedAt = now

	objID := primitive.NewObjectID()
	eq.ID = objID.Hex()

	doc := bson.M{
		"_id":          objID,
		"gym_id":       eq.GymID,
		"name":         eq.Name,
		"muscle_group": eq.MuscleGroup,
		"status":       eq.Status,
		"location":     eq.Location,
		"quantity":     eq.Quantity,
		"created_at":   eq.CreatedAt,
		"updated_at":   eq.UpdatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

func (r *MongoEquipmentRepository) GetByGym(ctx context.Context, gymID string) ([]*domain.Equipment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"gym_id": gymID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer cursor.Close(ctx)

	var equipment []*domain.Equipment
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		equipment = append(equipment, mapBsonToEquipment(raw))
	}
	return equipment, nil
}

func mapBsonToEquipment(raw bson.M) *domain.Equipment {
	eq := &domain.Equipment{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		eq.ID = oid.Hex()
	}
	if v, ok := raw["gym_id"].(string); ok {
		eq.GymID = v
	}
	if v, ok := raw["name"].(string); ok {
		eq.Name = v
	}
	if v, ok := raw["muscle_group"].(string); ok {
		eq.MuscleGroup = v
	}
	if v, ok := raw["status"].(string); ok {
		eq.Status = v
	}
	if v, ok := raw["location"].(string); ok {
		eq.Location = v
	}
	eq.Quantity = int(bsonInt64(raw["quantity"]))

	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		eq.CreatedAt = v.Time()
	}
	if v, ok := raw["updated_at"].(primitive.DateTime); ok {
		eq.UpdatedAt = v.Time()
	}
	return eq
}
