package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

type UserRepository struct {
	db      *DB
	timeout time.Duration
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.Role, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, storeErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("insert user", err)
	}

	created := *user
	created.ID = formatID(id)
	created.CreatedAt, created.UpdatedAt = now, now
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, n)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var (
		u  domain.User
		id int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, storeErr("find user", err)
	}
	u.ID = formatID(id)
	return &u, nil
}
