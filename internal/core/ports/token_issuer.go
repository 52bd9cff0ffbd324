package ports

import "github.com/sweetshop/inventory-api/internal/core/domain"

// Claims is the verified content of a session token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// TokenIssuer issues and verifies opaque bearer credentials.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
	Parse(token string) (*Claims, error)
}
