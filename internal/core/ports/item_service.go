package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// SearchQuery carries the optional search criteria. Precedence when several
// are present: Name, then Category, then the price range (both bounds required).
type SearchQuery struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

// ItemService defines catalog and stock use cases.
type ItemService interface {
	AddItem(ctx context.Context, fields domain.ItemFields) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListAll(ctx context.Context) ([]*domain.Item, error)
	Search(ctx context.Context, q SearchQuery) ([]*domain.Item, error)
	UpdateItem(ctx context.Context, id string, fields domain.ItemFields) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, qty int, idempotencyKey string) (*domain.Item, error)
	Restock(ctx context.Context, id string, qty int) (*domain.Item, error)
}
