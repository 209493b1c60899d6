package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const alertFeedKey = "alerts:feed:v1"

// DefaultAlertFeedTTL bounds how stale a cached feed can get if an invalidation is lost.
const DefaultAlertFeedTTL = 30 * time.Second

// RedisAlertFeedCache stores the serialized public alert feed under a single key.
type RedisAlertFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAlertFeedCache creates the alert feed cache adapter. A non-positive ttl uses DefaultAlertFeedTTL.
func NewRedisAlertFeedCache(client *redis.Client, ttl time.Duration) *RedisAlertFeedCache {
	if ttl <= 0 {
		ttl = DefaultAlertFeedTTL
	}
	return &RedisAlertFeedCache{client: client, ttl: ttl}
}

func (c *RedisAlertFeedCache) Get(ctx context.Context) ([]domain.Alert, bool, error) {
	raw, err := c.client.Get(ctx, alertFeedKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var alerts []domain.Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		return nil, false, fmt.Errorf("decode alert feed: %w", err)
	}
	return alerts, true, nil
}

func (c *RedisAlertFeedCache) Set(ctx context.Context, alerts []domain.Alert) error {
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	raw, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("encode alert feed: %w", err)
	}
	return c.client.Set(ctx, alertFeedKey, raw, c.ttl).Err()
}

func (c *RedisAlertFeedCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, alertFeedKey).Err()
}
