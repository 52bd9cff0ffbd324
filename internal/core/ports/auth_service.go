package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginResult is the identity summary returned on successful login.
type LoginResult struct {
	Username string
	Email    string
	Role     string
	Token    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
