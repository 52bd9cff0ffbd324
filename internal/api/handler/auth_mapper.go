package handler

import (
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	return loginResponse{
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
		Token:    r.Token,
	}
}

func toIdentityResponse(u *domain.User) identityResponse {
	return identityResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
	}
}
