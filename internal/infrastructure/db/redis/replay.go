package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	replayTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed purchase keeps its key reserved.
	pendingTTL    = 30 * time.Second
	pendingMarker = "pending"
)

// ReplayGuard remembers purchase results by idempotency key.
// Key format: purchase:replay:<item_id>:<idempotency_key>
type ReplayGuard struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

var _ ports.ReplayGuard = (*ReplayGuard)(nil)

// NewReplayGuard creates a ReplayGuard wrapping the given Redis client.
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: replayTTL, pendingTTL: pendingTTL}
}

// Reserve claims key with SET NX. When the key is already held it returns the
// remembered item, or domain.ErrPurchaseInProgress while the holder has not
// finished.
func (g *ReplayGuard) Reserve(ctx context.Context, key string) (*domain.Item, bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), pendingMarker, g.pendingTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("replay reserve: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	data, err := g.client.Get(ctx, g.key(key)).Bytes()
	if errors.Is(err, redis.Nil) || string(data) == pendingMarker {
		return nil, false, domain.ErrPurchaseInProgress
	}
	if err != nil {
		return nil, false, fmt.Errorf("replay recall: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, false, fmt.Errorf("replay decode: %w", err)
	}
	return &item, false, nil
}

// Remember replaces the reservation with the purchase result (expires after replayTTL).
func (g *ReplayGuard) Remember(ctx context.Context, key string, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("replay encode: %w", err)
	}
	return g.client.Set(ctx, g.key(key), data, g.ttl).Err()
}

// Release drops a reservation so the key can be retried.
func (g *ReplayGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *ReplayGuard) key(key string) string {
	return "purchase:replay:" + key
}
