package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	catalogKey        = "catalog:items"
	catalogGenKey     = "catalog:gen"
	defaultCatalogTTL = 30 * time.Second
)

// setIfGen writes the listing only while catalog:gen still holds ARGV[1].
const setIfGen = `local cur = redis.call('GET', KEYS[1]) or '0'
if cur == ARGV[1] then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
  return 1
end
return 0`

// CatalogCache stores the full catalog listing as one JSON value. Every
// invalidation bumps catalog:gen so a listing read before it is never stored.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.CatalogCache = (*CatalogCache)(nil)

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) Get(ctx context.Context) ([]*domain.Item, bool, error) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CatalogCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CatalogCacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("catalog get: %w", err)
	}

	var items []*domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		metrics.CatalogCacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("catalog decode: %w", err)
	}
	metrics.CatalogCacheLookupsTotal.WithLabelValues("hit").Inc()
	return items, true, nil
}

func (c *CatalogCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, catalogGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("catalog generation: %w", err)
	}
	return gen, nil
}

func (c *CatalogCache) Set(ctx context.Context, items []*domain.Item, gen int64) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("catalog encode: %w", err)
	}
	err = c.client.Eval(ctx, setIfGen, []string{catalogGenKey, catalogKey}, gen, data, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("catalog set: %w", err)
	}
	return nil
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, catalogGenKey).Err(); err != nil {
		return fmt.Errorf("catalog generation bump: %w", err)
	}
	return c.client.Del(ctx, catalogKey).Err()
}
