package domain

import (
	"context"
	"time"
)

// Equipment status values
const (
	EquipmentStatusActive      = "active"
	EquipmentStatusMaintenance = "maintenance"
	EquipmentStatusInactive    = "inactive"
)

// Equipment is a piece of gym equipment tracked for the inventory view.
type Equipment struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	GymID       string    `bson:"gym_id" json:"gym_id"`
	Name        string    `bson:"name" json:"name"`
	MuscleGroup string    `bson:"muscle_group" json:"muscle_group"`
	Status      string    `bson:"status" json:"status"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// EquipmentRepository defines operations for managing equipment.
type EquipmentRepository interface {
	Create(ctx context.Context, eq *Equipment) error
	GetByGym(ctx context.Context, gymID string) ([]*Equipment, error)
}
