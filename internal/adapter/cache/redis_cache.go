package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/port"
)

const tradesKey = "trades:latest"

var _ port.TradeCache = (*RedisCache)(nil)

// RedisCache holds the joined trade listing. The engine invalidates it after
// every successful matching run.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
	}
}

func (c *RedisCache) SetTrades(ctx context.Context, trades []domain.TradeView) error {
	b, err := json.Marshal(trades)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tradesKey, b, c.ttl).Err()
}

func (c *RedisCache) GetTrades(ctx context.Context) ([]domain.TradeView, error) {
	b, err := c.client.Get(ctx, tradesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var trades []domain.TradeView
	if err := json.Unmarshal(b, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, tradesKey).Err()
}
