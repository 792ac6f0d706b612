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

// MongoMemberRepository implements domain.MemberRepository
type MongoMemberRepository struct {
	collection *mongo.Collection
}

func NewMongoMemberRepository(db *mongo.Database) *MongoMemberRepository {
	coll := db.Collection("members")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// next_bill_date drives the reconciler, the sweep and the expiring views;
	// phone is unique per gym because registration dedupes on it.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gym_id", Value: 1}, {Key: "next_bill_date", Value: 1}}},
		{Keys: bson.D{{Key: "next_bill_date", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "gym_id", Value: 1}, {Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoMemberRepository{collection: coll}
}

func (r *MongoMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	member.Version = 1

	objID := primitive.NewObjectID()
	member.ID = objID.Hex()

	doc := bson.M{
		"_id":            objID,
		"gym_id":         member.GymID,
		"name":           member.Name,
		"email":          member.Email,
		"phone":          member.Phone,
		"address":        member.Address,
		"age":            member.Age,
		"gender":         member.Gender,
		"height":         member.Height,
		"weight":         member.Weight,
		"bmi":            member.BMI,
		"notes":          member.Notes,
		"plan_id":        member.PlanID,
		"status":         member.Status,
		"join_date":      member.JoinDate,
		"last_visit":     member.LastVisit,
		"last_payment":   member.LastPayment,
		"next_bill_date": member.NextBillDate,
		"version":        member.Version,
		"created_at":     member.CreatedAt,
		"updated_at":     member.UpdatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *MongoMemberRepository) GetByID(ctx context.Context, gymID, id string) (*domain.Member, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid member id: %w", err)
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID, "gym_id": gymID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return mapBsonToMember(raw), nil
}

func (r *MongoMemberRepository) GetByPhone(ctx context.Context, gymID, phone string) (*domain.Member, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"gym_id": gymID, "phone": phone}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member by phone: %w", err)
	}
	return mapBsonToMember(raw), nil
}

// Update writes profile fields only. Billing fields (status, plan_id,
// next_bill_date, last_payment) have dedicated operations and are never
// touched here.
func (r *MongoMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	objID, err := primitive.ObjectIDFromHex(member.ID)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	member.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":       member.Name,
			"email":      member.Email,
			"phone":      member.Phone,
			"address":    member.Address,
			"age":        member.Age,
			"height":     member.Height,
			"weight":     member.Weight,
			"bmi":        member.BMI,
			"notes":      member.Notes,
			"last_visit": member.LastVisit,
			"updated_at": member.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "gym_id": member.GymID}, update)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoMemberRepository) ApplyRenewal(ctx context.Context, gymID, id string, upd domain.RenewalUpdate, version int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	// Compare-and-swap on the version stamp. Two concurrent renewals
	// serialize here: the loser matches nothing and gets a conflict.
	filter := bson.M{"_id": objID, "gym_id": gymID, "version": version}
	update := bson.M{
		"$set": bson.M{
			"plan_id":        upd.PlanID,
			"next_bill_date": upd.NextBillDate,
			"last_payment":   upd.LastPayment,
			"status":         domain.StatusActive,
			"updated_at":     time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to apply renewal: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a stale version from a missing member.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID, "gym_id": gymID})
		if err != nil {
			return fmt.Errorf("failed to apply renewal: %w", err)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *MongoMemberRepository) SetStatus(ctx context.Context, gymID, id, status string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "gym_id": gymID}, update)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkExpired uses $lte: a date equal to "now" is already expired, matching
// DeriveStatus. The sweep's MarkAllExpired is $lt against start-of-today so
// members expiring later today keep Active until their day is over.
func (r *MongoMemberRepository) MarkExpired(ctx context.Context, gymID string, cutoff time.Time) (int64, error) {
	return r.markExpired(ctx, bson.M{
		"gym_id":         gymID,
		"status":         domain.StatusActive,
		"next_bill_date": bson.M{"$lte": cutoff},
	})
}

func (r *MongoMemberRepository) MarkAllExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.markExpired(ctx, bson.M{
		"status":         domain.StatusActive,
		"next_bill_date": bson.M{"$lt": before},
	})
}

// markExpired is a single conditional UpdateMany: the date check in the
// filter is evaluated atomically per document on the server, so a renewal
// committed between our read and write can never be demoted by a stale view.
func (r *MongoMemberRepository) markExpired(ctx context.Context, filter bson.M) (int64, error) {
	update := bson.M{
		"$set": bson.M{"status": domain.StatusInactive, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired members: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoMemberRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	filter := bson.M{
		"status":         domain.StatusActive,
		"next_bill_date": bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "next_bill_date", Value: 1}}))
}

func (r *MongoMemberRepository) GetByGym(ctx context.Context, gymID string, skip, limit int64) ([]*domain.Member, int64, error) {
	filter := bson.M{"gym_id": gymID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	members, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *MongoMemberRepository) Search(ctx context.Context, gymID, term string) ([]*domain.Member, error) {
	filter := bson.M{
		"gym_id": gymID,
		"$or": []bson.M{
			{"name": bson.M{"$regex": "^" + term, "$options": "i"}},
			{"phone": bson.M{"$regex": "^" + term, "$options": "i"}},
		},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *MongoMemberRepository) JoinedBetween(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Member, error) {
	filter := bson.M{
		"gym_id":    gymID,
		"join_date": bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "join_date", Value: -1}}))
}

func (r *MongoMemberRepository) ExpiringBetween(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Member, error) {
	filter := bson.M{
		"gym_id":         gymID,
		"next_bill_date": bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "next_bill_date", Value: -1}}))
}

func (r *MongoMemberRepository) Expired(ctx context.Context, gymID string, now time.Time) ([]*domain.Member, error) {
	filter := bson.M{
		"gym_id":         gymID,
		"status":         domain.StatusActive,
		"next_bill_date": bson.M{"$lt": now},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "next_bill_date", Value: -1}}))
}

func (r *MongoMemberRepository) Inactive(ctx context.Context, gymID string) ([]*domain.Member, error) {
	filter := bson.M{
		"gym_id": gymID,
		"status": domain.StatusInactive,
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "next_bill_date", Value: -1}}))
}

func (r *MongoMemberRepository) CountByStatus(ctx context.Context, gymID string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"gym_id": gymID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	return r.aggregateCounts(ctx, pipeline)
}

func (r *MongoMemberRepository) CountActiveByPlan(ctx context.Context, gymID string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"gym_id": gymID, "status": domain.StatusActive}}},
		{{Key: "$group", Value: bson.M{"_id": "$plan_id", "count": bson.M{"$sum": 1}}}},
	}
	return r.aggregateCounts(ctx, pipeline)
}

func (r *MongoMemberRepository) aggregateCounts(ctx context.Context, pipeline mongo.Pipeline) (map[string]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate members: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, nil
}

func (r *MongoMemberRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Member, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []*domain.Member
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		members = append(members, mapBsonToMember(raw))
	}
	return members, nil
}

func mapBsonToMember(raw bson.M) *domain.Member {
	m := &domain.Member{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		m.ID = oid.Hex()
	}
	if v, ok := raw["gym_id"].(string); ok {
		m.GymID = v
	}
	if v, ok := raw["name"].(string); ok {
		m.Name = v
	}
	if v, ok := raw["email"].(string); ok {
		m.Email = v
	}
	if v, ok := raw["phone"].(string); ok {
		m.Phone = v
	}
	if v, ok := raw["address"].(string); ok {
		m.Address = v
	}
	if v, ok := raw["gender"].(string); ok {
		m.Gender = v
	}
	if v, ok := raw["notes"].(string); ok {
		m.Notes = v
	}
	if v, ok := raw["plan_id"].(string); ok {
		m.PlanID = v
	}
	if v, ok := raw["status"].(string); ok {
		m.Status = v
	}
	m.Age = int(bsonInt64(raw["age"]))
	m.Height = bsonFloat(raw["height"])
	m.Weight = bsonFloat(raw["weight"])
	m.BMI = bsonFloat(raw["bmi"])
	m.Version = bsonInt64(raw["version"])

	if v, ok := raw["join_date"].(primitive.DateTime); ok {
		m.JoinDate = v.Time()
	}
	if v, ok := raw["last_visit"].(primitive.DateTime); ok {
		m.LastVisit = v.Time()
	}
	if v, ok := raw["last_payment"].(primitive.DateTime); ok {
		m.LastPayment = v.Time()
	}
	if v, ok := raw["next_bill_date"].(primitive.DateTime); ok {
		m.NextBillDate = v.Time()
	}
	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		m.CreatedAt = v.Time()
	}
	if v, ok := raw["updated_at"].(primitive.DateTime); ok {
		m.UpdatedAt = v.Time()
	}

	return m
}

func bsonInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func bsonFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
