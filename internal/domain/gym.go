package domain

import (
	"context"
	"time"
)

// Gym is the tenant that owns members, plans, payments and equipment.
// Account management (registration, login, password reset) lives in the
// external auth service; this service only reads gyms for scoping and for
// notification sender context.
type Gym struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Username  string    `bson:"username" json:"username"`
	GymName   string    `bson:"gym_name" json:"gym_name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// GymRepository defines read operations on gyms.
type GymRepository interface {
	GetByID(ctx context.Context, id string) (*Gym, error)
	GetByEmail(ctx context.Context, email string) (*Gym, error)
}
