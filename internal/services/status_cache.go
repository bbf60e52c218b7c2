package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const statusCacheKeyPrefix = "payment-status:"

// PaymentStatusCache caches payment aggregates for the payment-status read path.
// A miss or a cache failure falls through to the database.
type PaymentStatusCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*PaymentAggregate, bool)
	Set(ctx context.Context, agg *PaymentAggregate)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// NoopStatusCache disables caching.
type NoopStatusCache struct{}

func (NoopStatusCache) Get(context.Context, uuid.UUID) (*PaymentAggregate, bool) { return nil, false }
func (NoopStatusCache) Set(context.Context, *PaymentAggregate)                  {}
func (NoopStatusCache) Invalidate(context.Context, uuid.UUID)                   {}

// RedisStatusCache stores aggregates as JSON under payment-status:<user id>.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatusCache wraps an existing redis client.
func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{client: client, ttl: ttl}
}

// NewStatusCacheFromURL connects to redisURL, or returns a no-op cache when it is empty.
func NewStatusCacheFromURL(ctx context.Context, redisURL string, ttl time.Duration) (PaymentStatusCache, error) {
	if redisURL == "" {
		return NoopStatusCache{}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStatusCache(client, ttl), nil
}

func (c *RedisStatusCache) Get(ctx context.Context, userID uuid.UUID) (*PaymentAggregate, bool) {
	raw, err := c.client.Get(ctx, statusCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("user_id", userID).Warn("payment status cache read failed")
		}
		return nil, false
	}

	var agg PaymentAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, false
	}
	return &agg, true
}

func (c *RedisStatusCache) Set(ctx context.Context, agg *PaymentAggregate) {
	raw, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statusCacheKey(agg.UserID), raw, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", agg.UserID).Warn("payment status cache write failed")
	}
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, statusCacheKey(userID)).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("payment status cache invalidation failed")
	}
}

// Close releases the redis connection pool.
func (c *RedisStatusCache) Close() error {
	return c.client.Close()
}

func statusCacheKey(userID uuid.UUID) string {
	return statusCacheKeyPrefix + userID.String()
}
