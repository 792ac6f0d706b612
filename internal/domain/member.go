package domain

import (
	"context"
	"time"
)

// Member is a gym member. Status is derived from NextBillDate but persisted
// for query efficiency; DeriveStatus is the source of truth and the
// reconciler/sweep correct any drift. NextBillDate only ever moves forward,
// and only through registration or a renewal.
type Member struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	GymID   string `bson:"gym_id" json:"gym_id"`
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	Age     int    `bson:"age" json:"age"`
	Gender  string `bson:"gender" json:"gender"`

	// Health metrics, advisory only
	Height float64 `bson:"height,omitempty" json:"height,omitempty"` // cm
	Weight float64 `bson:"weight,omitempty" json:"weight,omitempty"` // kg
	BMI    float64 `bson:"bmi,omitempty" json:"bmi,omitempty"`
	Notes  string  `bson:"notes,omitempty" json:"notes,omitempty"`

	// Billing state
	PlanID       string    `bson:"plan_id" json:"plan_id"`
	Status       string    `bson:"status" json:"status"` // Active | Inactive
	JoinDate     time.Time `bson:"join_date" json:"join_date"`
	LastVisit    time.Time `bson:"last_visit" json:"last_visit"`
	LastPayment  time.Time `bson:"last_payment" json:"last_payment"`
	NextBillDate time.Time `bson:"next_bill_date" json:"next_bill_date"`

	// Version is the optimistic-concurrency stamp. Every member write is
	// conditioned on the version read; a lost race surfaces as
	// ErrVersionConflict instead of interleaved fields.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RenewalUpdate carries the member fields a renewal is allowed to touch.
type RenewalUpdate struct {
	PlanID       string
	NextBillDate time.Time
	LastPayment  time.Time
}

// MemberRepository defines operations for managing members.
type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, gymID, id string) (*Member, error)
	GetByPhone(ctx context.Context, gymID, phone string) (*Member, error)
	Update(ctx context.Context, member *Member) error

	// ApplyRenewal promotes the member to Active with the given billing
	// fields, conditioned on the version stamp. Returns ErrVersionConflict
	// if the member changed since it was read.
	ApplyRenewal(ctx context.Context, gymID, id string, upd RenewalUpdate, version int64) error

	// SetStatus writes the status field directly (manual override endpoint).
	SetStatus(ctx context.Context, gymID, id, status string) error

	// MarkExpired demotes Active members of one gym whose next bill date is
	// at or before the cutoff, matching DeriveStatus's exclusive boundary.
	// The filter re-checks the date server-side, so a concurrent renewal
	// that pushed the date forward is never demoted.
	MarkExpired(ctx context.Context, gymID string, cutoff time.Time) (int64, error)

	// MarkAllExpired is the sweep's unscoped variant. Its cutoff is the
	// start of the current day and the comparison is strictly before, so
	// members expiring later today stay Active for their reminder.
	MarkAllExpired(ctx context.Context, before time.Time) (int64, error)

	// FindDueBetween returns Active members across all gyms whose next bill
	// date falls inside [from, to] (inclusive). Sweep notification windows.
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*Member, error)

	// Listing projections for the UI layer
	GetByGym(ctx context.Context, gymID string, skip, limit int64) ([]*Member, int64, error)
	Search(ctx context.Context, gymID, term string) ([]*Member, error)
	JoinedBetween(ctx context.Context, gymID string, from, to time.Time) ([]*Member, error)
	ExpiringBetween(ctx context.Context, gymID string, from, to time.Time) ([]*Member, error)
	Expired(ctx context.Context, gymID string, now time.Time) ([]*Member, error)
	Inactive(ctx context.Context, gymID string) ([]*Member, error)

	// CountByStatus groups the gym's members by status for the dashboard.
	CountByStatus(ctx context.Context, gymID string) (map[string]int64, error)

	// CountActiveByPlan groups Active members by plan id for the
	// plan-distribution chart.
	CountActiveByPlan(ctx context.Context, gymID string) (map[string]int64, error)
}
