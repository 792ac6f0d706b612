package domain

import (
	"context"
	"time"
)

// Payment methods and statuses
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"

	PaymentStatusCaptured = "captured"
)

// Payment is one row of the append-only payment ledger. Amount is the plan
// price at the moment of the transaction; nothing ever updates or deletes a
// payment, which is why revenue reports read this collection instead of
// re-deriving from mutable member state.
type Payment struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	GymID     string    `bson:"gym_id" json:"gym_id"`
	MemberID  string    `bson:"member_id" json:"member_id"`
	PlanID    string    `bson:"plan_id" json:"plan_id"`
	OrderID   string    `bson:"order_id" json:"order_id"`
	PaymentID string    `bson:"payment_id" json:"payment_id"`
	Amount    int64     `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Method    string    `bson:"method" json:"method"` // cash | online
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// MonthlyRevenue is one month's total from the payment ledger.
type MonthlyRevenue struct {
	Year    int   `bson:"year" json:"year"`
	Month   int   `bson:"month" json:"month"`
	Revenue int64 `bson:"revenue" json:"revenue"`
}

// PaymentRepository is append-only: there is deliberately no update or
// delete operation.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByGym(ctx context.Context, gymID string, from, to time.Time) ([]*Payment, error)
	GetByMember(ctx context.Context, gymID, memberID string) ([]*Payment, error)

	// RevenueByMonth sums payment amounts grouped by calendar month for
	// payments created at or after `since`.
	RevenueByMonth(ctx context.Context, gymID string, since time.Time) ([]MonthlyRevenue, error)
}
