package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gymdesk/internal/domain"
)

const analyticsCacheTTL = 5 * time.Minute

// revenueMonths is how far back the revenue chart reaches.
const revenueMonths = 6

// PlanCount is one slice of the plan-distribution chart.
type PlanCount struct {
	PlanID  string `json:"plan_id"`
	Months  int    `json:"months"`
	Price   int64  `json:"price"`
	Members int64  `json:"members"`
}

// AnalyticsService computes dashboard aggregates with a Redis cache in
// front. Cache errors other than a miss are logged and treated as a miss;
// the dashboard must keep working when Redis is down.
type AnalyticsService struct {
	members  domain.MemberRepository
	plans    domain.PlanRepository
	payments domain.PaymentRepository
	cache    domain.CacheRepository
	clock    domain.Clock
}

func NewAnalyticsService(
	members domain.MemberRepository,
	plans domain.PlanRepository,
	payments domain.PaymentRepository,
	cache domain.CacheRepository,
	clock domain.Clock,
) *AnalyticsService {
	return &AnalyticsService{
		members:  members,
		plans:    plans,
		payments: payments,
		cache:    cache,
		clock:    clock,
	}
}

// PlanDistribution returns, per plan, how many Active members are on it.
// Plans with zero Active members still appear so the chart shows the full
// catalog.
func (s *AnalyticsService) PlanDistribution(ctx context.Context, gymID string) ([]PlanCount, error) {
	var cached []PlanCount
	if err := s.cache.GetPlanDistribution(ctx, gymID, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[Analytics] Cache read failed for gym %s: %v", gymID, err)
	}

	counts, err := s.members.CountActiveByPlan(ctx, gymID)
	if err != nil {
		return nil, fmt.Errorf("count members by plan: %w", err)
	}
	plans, err := s.plans.GetByGym(ctx, gymID)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	result := make([]PlanCount, 0, len(plans))
	for _, p := range plans {
		result = append(result, PlanCount{
			PlanID:  p.ID,
			Months:  p.Months,
			Price:   p.Price,
			Members: counts[p.ID],
		})
	}

	if err := s.cache.SetPlanDistribution(ctx, gymID, result, analyticsCacheTTL); err != nil {
		log.Printf("[Analytics] Cache write failed for gym %s: %v", gymID, err)
	}
	return result, nil
}

// MonthlyRevenue sums the payment ledger by calendar month over the last
// six months. It reads payments, never member state, so it is immune to
// plan price edits and status churn.
func (s *AnalyticsService) MonthlyRevenue(ctx context.Context, gymID string) ([]domain.MonthlyRevenue, error) {
	var cached []domain.MonthlyRevenue
	if err := s.cache.GetMonthlyRevenue(ctx, gymID, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[Analytics] Cache read failed for gym %s: %v", gymID, err)
	}

	since := domain.AddMonths(s.clock.Now(), -revenueMonths)
	revenue, err := s.payments.RevenueByMonth(ctx, gymID, since)
	if err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}

	if err := s.cache.SetMonthlyRevenue(ctx, gymID, revenue, analyticsCacheTTL); err != nil {
		log.Printf("[Analytics] Cache write failed for gym %s: %v", gymID, err)
	}
	return revenue, nil
}

// StatusCounts returns the Active/Inactive split for the gym.
func (s *AnalyticsService) StatusCounts(ctx context.Context, gymID string) (map[string]int64, error) {
	var cached map[string]int64
	if err := s.cache.GetStatusCounts(ctx, gymID, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[Analytics] Cache read failed for gym %s: %v", gymID, err)
	}

	counts, err := s.members.CountByStatus(ctx, gymID)
	if err != nil {
		return nil, fmt.Errorf("count members by status: %w", err)
	}
	if _, ok := counts[domain.StatusActive]; !ok {
		counts[domain.StatusActive] = 0
	}
	if _, ok := counts[domain.StatusInactive]; !ok {
		counts[domain.StatusInactive] = 0
	}

	if err := s.cache.SetStatusCounts(ctx, gymID, counts, analyticsCacheTTL); err != nil {
		log.Printf("[Analytics] Cache write failed for gym %s: %v", gymID, err)
	}
	return counts, nil
}

// Invalidate drops the gym's cached aggregates. Called after writes that
// change what the dashboard shows.
func (s *AnalyticsService) Invalidate(ctx context.Context, gymID string) {
	if err := s.cache.InvalidateGymAnalytics(ctx, gymID); err != nil {
		log.Printf("[Analytics] Cache invalidation failed for gym %s: %v", gymID, err)
	}
}
