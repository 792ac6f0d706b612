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

// MongoPlanRepository implements domain.PlanRepository
type MongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) *MongoPlanRepository {
	coll := db.Collection("plans")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// A gym offers at most one plan per duration.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "gym_id", Value: 1}, {Key: "months", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoPlanRepository{collection: coll}
}

func (r *MongoPlanRepository) Upsert(ctx context.Context, plan *domain.Plan) error {
	now := time.Now().UTC()
	objID := primitive.NewObjectID()

	filter := bson.M{"gym_id": plan.GymID, "months": plan.Months}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        objID,
			"gym_id":     plan.GymID,
			"months":     plan.Months,
			"created_at": now,
		},
		"$set": bson.M{
			"price":      plan.Price,
			"updated_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert plan: %w", err)
	}

	if result.UpsertedID != nil {
		plan.ID = objID.Hex()
		plan.CreatedAt = now
	} else {
		existing, err := r.getOne(ctx, filter)
		if err == nil {
			plan.ID = existing.ID
			plan.CreatedAt = existing.CreatedAt
		}
	}
	plan.UpdatedAt = now
	return nil
}

func (r *MongoPlanRepository) GetByID(ctx context.Context, gymID, id string) (*domain.Plan, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}
	return r.getOne(ctx, bson.M{"_id": objID, "gym_id": gymID})
}

func (r *MongoPlanRepository) GetByGym(ctx context.Context, gymID string) ([]*domain.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "months", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"gym_id": gymID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*domain.Plan
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		plans = append(plans, mapBsonToPlan(raw))
	}
	return plans, nil
}

func (r *MongoPlanRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Plan, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to list plans by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*domain.Plan
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		plans = append(plans, mapBsonToPlan(raw))
	}
	return plans, nil
}

func (r *MongoPlanRepository) getOne(ctx context.Context, filter bson.M) (*domain.Plan, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, filter).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return mapBsonToPlan(raw), nil
}

func mapBsonToPlan(raw bson.M) *domain.Plan {
	p := &domain.Plan{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	if v, ok := raw["gym_id"].(string); ok {
		p.GymID = v
	}
	p.Months = int(bsonInt64(raw["months"]))
	p.Price = bsonInt64(raw["price"])

	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		p.CreatedAt = v.Time()
	}
	if v, ok := raw["updated_at"].(primitive.DateTime); ok {
		p.UpdatedAt = v.Time()
	}
	return p
}
