package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/domain"
)

const (
	planDistributionKeyPrefix = "analytics:plan_distribution:"
	monthlyRevenueKeyPrefix   = "analytics:monthly_revenue:"
	statusCountsKeyPrefix     = "analytics:status_counts:"
)

// ErrCacheMiss mirrors the domain sentinel for callers inside this package.
var ErrCacheMiss = domain.ErrCacheMiss

// RedisCacheRepository caches dashboard aggregates. Everything here is
// best-effort: a Redis failure degrades to recomputing from Mongo.
type RedisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

// Get retrieves a value from cache by key with OTel tracing
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

// Set stores a value in cache with TTL and OTel tracing
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete removes keys from cache
func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Dashboard aggregate helpers

func (r *RedisCacheRepository) SetPlanDistribution(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error {
	return r.Set(ctx, planDistributionKeyPrefix+gymID, data, ttl)
}

func (r *RedisCacheRepository) GetPlanDistribution(ctx context.Context, gymID string, dest interface{}) error {
	return r.Get(ctx, planDistributionKeyPrefix+gymID, dest)
}

func (r *RedisCacheRepository) SetMonthlyRevenue(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error {
	return r.Set(ctx, monthlyRevenueKeyPrefix+gymID, data, ttl)
}

func (r *RedisCacheRepository) GetMonthlyRevenue(ctx context.Context, gymID string, dest interface{}) error {
	return r.Get(ctx, monthlyRevenueKeyPrefix+gymID, dest)
}

func (r *RedisCacheRepository) SetStatusCounts(ctx context.Context, gymID string, data interface{}, ttl time.Duration) error {
	return r.Set(ctx, statusCountsKeyPrefix+gymID, data, ttl)
}

func (r *RedisCacheRepository) GetStatusCounts(ctx context.Context, gymID string, dest interface{}) error {
	return r.Get(ctx, statusCountsKeyPrefix+gymID, dest)
}

// InvalidateGymAnalytics drops all cached aggregates for a gym. Called after
// renewals and registrations so the dashboard does not serve stale charts.
func (r *RedisCacheRepository) InvalidateGymAnalytics(ctx context.Context, gymID string) error {
	return r.Delete(ctx,
		planDistributionKeyPrefix+gymID,
		monthlyRevenueKeyPrefix+gymID,
		statusCountsKeyPrefix+gymID,
	)
}
