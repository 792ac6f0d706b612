package domain

import (
	"context"
	"time"
)

// CacheRepository caches dashboard aggregates. Get methods return
// ErrCacheMiss when the key is absent; callers fall back to the store.
type CacheRepository interface {
	GetPlanDistribution(ctx context.Context, gymID string, dest interface{}) error
	SetPlanDistribution(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error
	GetMonthlyRevenue(ctx context.Context, gymID string, dest interface{}) error
	SetMonthlyRevenue(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error
	GetStatusCounts(ctx context.Context, gymID string, dest interface{}) error
	SetStatusCounts(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error
	InvalidateGymAnalytics(ctx context.Context, gymID string) error
}
