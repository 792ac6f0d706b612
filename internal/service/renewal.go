package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/oklog/ulid/v2"

	"gymdesk/internal/domain"
)

// renewalRetries bounds the CAS retry loop when a renewal loses a version
// race. Conflicts are rare (same member, same instant), so a small bound
// is plenty.
const renewalRetries = 3

// RenewalService is the only code path that promotes a member to Active or
// advances next_bill_date. The member update and the payment insert run
// inside one store transaction.
type RenewalService struct {
	members  domain.MemberRepository
	plans    domain.PlanRepository
	payments domain.PaymentRepository
	tx       domain.TxRunner
	clock    domain.Clock
}

func NewRenewalService(
	members domain.MemberRepository,
	plans domain.PlanRepository,
	payments domain.PaymentRepository,
	tx domain.TxRunner,
	clock domain.Clock,
) *RenewalService {
	return &RenewalService{
		members:  members,
		plans:    plans,
		payments: payments,
		tx:       tx,
		clock:    clock,
	}
}

// RenewalInput carries one renewal request.
type RenewalInput struct {
	GymID    string
	MemberID string
	PlanID   string
	Method   string // cash | online
	// Gateway references, online renewals only. Cash renewals get a
	// generated receipt id.
	OrderID   string
	PaymentID string
}

// Renew extends the member's paid-through date by the plan's duration,
// promotes status to Active, stamps the payment time and appends a ledger
// entry priced at the plan's current price.
//
// Plan-not-found and member-not-found fail before any write. The amount is
// copied from the plan, so later price edits never alter this payment.
func (s *RenewalService) Renew(ctx context.Context, in RenewalInput) (*domain.Member, *domain.Payment, error) {
	if in.Method != domain.PaymentMethodCash && in.Method != domain.PaymentMethodOnline {
		return nil, nil, fmt.Errorf("unsupported payment method %q", in.Method)
	}

	plan, err := s.plans.GetByID(ctx, in.GymID, in.PlanID)
	if err != nil {
		return nil, nil, fmt.Errorf("plan lookup: %w", err)
	}

	member, err := s.members.GetByID(ctx, in.GymID, in.MemberID)
	if err != nil {
		return nil, nil, fmt.Errorf("member lookup: %w", err)
	}

	// An expired membership restarts from now; an early renewal stacks on
	// the remaining paid time, so the new date never moves backwards.
	now := s.clock.Now()
	base := now
	if member.NextBillDate.After(now) {
		base = member.NextBillDate
	}
	upd := domain.RenewalUpdate{
		PlanID:       plan.ID,
		NextBillDate: domain.AddMonths(base, plan.Months),
		LastPayment:  now,
	}

	orderID := in.OrderID
	paymentID := in.PaymentID
	if in.Method == domain.PaymentMethodCash {
		receipt := ulid.Make().String()
		orderID = "receipt_" + receipt
		paymentID = "cash_" + receipt
	}

	payment := &domain.Payment{
		GymID:     in.GymID,
		MemberID:  member.ID,
		PlanID:    plan.ID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Amount:    plan.Price,
		Currency:  "INR",
		Method:    in.Method,
		Status:    domain.PaymentStatusCaptured,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.applyWithRetry(ctx, in.GymID, member, upd); err != nil {
			return err
		}
		return s.payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, nil, err
	}

	member.PlanID = upd.PlanID
	member.NextBillDate = upd.NextBillDate
	member.LastPayment = upd.LastPayment
	member.Status = domain.StatusActive
	return member, payment, nil
}

// applyWithRetry performs the version-guarded member update, refetching and
// retrying on conflict so a renewal never silently overwrites another
// writer's fields.
func (s *RenewalService) applyWithRetry(ctx context.Context, gymID string, member *domain.Member, upd domain.RenewalUpdate) error {
	version := member.Version
	for attempt := 0; attempt < renewalRetries; attempt++ {
		err := s.members.ApplyRenewal(ctx, gymID, member.ID, upd, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		log.Printf("[Renewal] Version conflict for member %s, retrying (attempt %d)", member.ID, attempt+1)
		fresh, err := s.members.GetByID(ctx, gymID, member.ID)
		if err != nil {
			return err
		}
		version = fresh.Version
	}
	return domain.ErrVersionConflict
}
