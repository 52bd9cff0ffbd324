package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// UserRepository persists identities. Lookups that miss return domain.ErrIdentityNotFound;
// a second identity with the same email returns domain.ErrDuplicateEmail.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
