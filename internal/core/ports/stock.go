package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// CatalogCache holds the full catalog listing between mutations.
type CatalogCache interface {
	Get(ctx context.Context) ([]*domain.Item, bool, error)
	// Generation returns a counter that Invalidate advances.
	Generation(ctx context.Context) (int64, error)
	// Set stores items only while the generation still equals gen, so a
	// listing read before an invalidation is never cached after it.
	Set(ctx context.Context, items []*domain.Item, gen int64) error
	Invalidate(ctx context.Context) error
}

// ReplayGuard remembers purchase results by idempotency key.
type ReplayGuard interface {
	// Reserve claims key atomically. It returns reserved=true for the first
	// caller, the remembered item once that caller has finished, and
	// domain.ErrPurchaseInProgress while it is still running.
	Reserve(ctx context.Context, key string) (prev *domain.Item, reserved bool, err error)
	// Remember replaces the reservation with the committed result.
	Remember(ctx context.Context, key string, item *domain.Item) error
	// Release drops a reservation whose purchase failed.
	Release(ctx context.Context, key string) error
}

// StockEventPublisher delivers committed stock events to downstream consumers.
type StockEventPublisher interface {
	Publish(ctx context.Context, event domain.StockEvent) error
}

// StockEventSink accepts stock events for asynchronous delivery. Implementations
// must not block the caller for long.
type StockEventSink interface {
	Enqueue(event domain.StockEvent)
}
