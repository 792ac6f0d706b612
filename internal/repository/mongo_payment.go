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

// MongoPaymentRepository implements domain.PaymentRepository.
// The payments collection is append-only; there is no update path.
type MongoPaymentRepository struct {
	collection *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	coll := db.Collection("payments")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gym_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	return &MongoPaymentRepository{collection: coll}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	payment.CreatedAt = time.Now().UTC()

	objID := primitive.NewObjectID()
	payment.ID = objID.Hex()

	doc := bson.M{
		"_id":        objID,
		"gym_id":     payment.GymID,
		"member_id":  payment.MemberID,
		"plan_id":    payment.PlanID,
		"order_id":   payment.OrderID,
		"payment_id": payment.PaymentID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"method":     payment.Method,
		"status":     payment.Status,
		"created_at": payment.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepository) GetByGym(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Payment, error) {
	filter := bson.M{"gym_id": gymID}
	if !from.IsZero() || !to.IsZero() {
		created := bson.M{}
		if !from.IsZero() {
			created["$gte"] = from
		}
		if !to.IsZero() {
			created["$lte"] = to
		}
		filter["created_at"] = created
	}

	return r.find(ctx, filter)
}

func (r *MongoPaymentRepository) GetByMember(ctx context.Context, gymID, memberID string) ([]*domain.Payment, error) {
	return r.find(ctx, bson.M{"gym_id": gymID, "member_id": memberID})
}

// RevenueByMonth sums the ledger grouped by calendar month. Reports read
// payments rather than member state: members mutate, payments do not.
func (r *MongoPaymentRepository) RevenueByMonth(ctx context.Context, gymID string, since time.Time) ([]domain.MonthlyRevenue, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"gym_id":     gymID,
			"created_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$created_at"},
				"month": bson.M{"$month": "$created_at"},
			},
			"revenue": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$project", Value: bson.M{
			"year":    "$_id.year",
			"month":   "$_id.month",
			"revenue": 1,
			"_id":     0,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.MonthlyRevenue
	for cursor.Next(ctx) {
		var row domain.MonthlyRevenue
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *MongoPaymentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*domain.Payment
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		payments = append(payments, mapBsonToPayment(raw))
	}
	return payments, nil
}

func mapBsonToPayment(raw bson.M) *domain.Payment {
	p := &domain.Payment{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	if v, ok := raw["gym_id"].(string); ok {
		p.GymID = v
	}
	if v, ok := raw["member_id"].(string); ok {
		p.MemberID = v
	}
	if v, ok := raw["plan_id"].(string); ok {
		p.PlanID = v
	}
	if v, ok := raw["order_id"].(string); ok {
		p.OrderID = v
	}
	if v, ok := raw["payment_id"].(string); ok {
		p.PaymentID = v
	}
	if v, ok := raw["currency"].(string); ok {
		p.Currency = v
	}
	if v, ok := raw["method"].(string); ok {
		p.Method = v
	}
	if v, ok := raw["status"].(string); ok {
		p.Status = v
	}
	p.Amount = bsonInt64(raw["amount"])

	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		p.CreatedAt = v.Time()
	}
	return p
}
