package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

var validate = validator.New()

// AuthService implements registration and login.
type AuthService struct {
	repo          ports.UserRepository
	tokens        ports.TokenIssuer
	logger        zerolog.Logger
	cost          int
	roleSelection bool
	dummyHash     []byte
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithRoleSelection lets callers of Register choose USER or ADMIN. Without it
// every registration is forced to USER.
func WithRoleSelection(allow bool) AuthOption {
	return func(s *AuthService) { s.roleSelection = allow }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, logger zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{repo: repo, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	// Compared against on unknown emails so both failure paths cost one bcrypt round.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sweetshop-dummy-password"), s.cost)
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case username == "":
		return nil, domain.Invalid("username is required")
	case email == "":
		return nil, domain.Invalid("email is required")
	case in.Password == "":
		return nil, domain.Invalid("password is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, domain.Invalid("email is malformed")
	}

	role, err := s.resolveRole(in.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store's unique index settles a race with a concurrent registration.
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

func (s *AuthService) resolveRole(requested string) (string, error) {
	role := strings.ToUpper(strings.TrimSpace(requested))
	role = strings.TrimPrefix(role, "ROLE_")

	if !s.roleSelection {
		if role != "" && role != domain.RoleUser {
			s.logger.Debug().Str("requested_role", role).Msg("self-registration role ignored")
		}
		return domain.RoleUser, nil
	}
	if role == "" {
		return domain.RoleUser, nil
	}
	if !domain.ValidRole(role) {
		return "", domain.Invalid("role must be one of USER, ADMIN")
	}
	return role, nil
}

// Login verifies the password against the record found by email and issues a
// token for that same record.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn().Str("user_id", user.ID).Msg("failed login attempt")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("token issue failed")
		return nil, err
	}

	return &ports.LoginResult{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	}, nil
}

// Me resolves the identity behind a verified token subject.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return s.repo.FindByID(ctx, userID)
}
