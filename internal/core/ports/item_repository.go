package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// ItemFilter selects a subset of the catalog. At most one criterion is set;
// an empty filter selects everything. Results are in insertion order.
type ItemFilter struct {
	NameContains *string  // case-insensitive substring
	Category     *string  // case-insensitive equality
	MinPrice     *float64 // inclusive, set together with MaxPrice
	MaxPrice     *float64
}

// ItemRepository defines persistence operations for catalog items.
type ItemRepository interface {
	Create(ctx context.Context, fields domain.ItemFields) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	// Update overwrites every mutable field in one write.
	Update(ctx context.Context, id string, fields domain.ItemFields) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	// AdjustQuantity adds delta to the item's quantity as one atomic
	// read-modify-write. When the result would be negative the item is left
	// untouched and an *domain.InsufficientStockError is returned.
	AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Item, error)
}
