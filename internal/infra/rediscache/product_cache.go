package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-service/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ProductCache is a read-through cache for catalog lookups. It is never
// consulted for stock decisions; those always go to the repository.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Get(ctx context.Context, id uint64) (*domain.Product, bool) {
	cached, err := c.client.Get(ctx, productKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("product cache read failed", zap.Uint64("product_id", id), zap.Error(err))
		}
		return nil, false
	}
	var p domain.Product
	if err := json.Unmarshal([]byte(cached), &p); err != nil {
		c.log.Warn("discarding corrupt product cache entry", zap.Uint64("product_id", id), zap.Error(err))
		c.client.Del(ctx, productKey(id))
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("product cache write failed", zap.Uint64("product_id", p.ID), zap.Error(err))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint64) {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		c.log.Warn("product cache invalidation failed", zap.Uint64("product_id", id), zap.Error(err))
	}
}
