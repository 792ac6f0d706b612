package domain

import (
	"context"
	"time"
)

// Plan is a membership plan offered by a gym: a duration in calendar months
// and a price. Prices are copied onto payment records at transaction time,
// so editing a plan never rewrites payment history.
type Plan struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	GymID     string    `bson:"gym_id" json:"gym_id"`
	Months    int       `bson:"months" json:"months"` // 1..60
	Price     int64     `bson:"price" json:"price"`   // smallest currency unit
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlanRepository defines operations for managing plans.
type PlanRepository interface {
	// Upsert creates the plan or, if the gym already offers a plan with the
	// same month count, updates its price.
	Upsert(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, gymID, id string) (*Plan, error)
	GetByGym(ctx context.Context, gymID string) ([]*Plan, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Plan, error)
}
