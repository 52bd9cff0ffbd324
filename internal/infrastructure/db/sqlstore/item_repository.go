package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const itemColumns = `id, name, category, price, quantity, version, created_at, updated_at`

type ItemRepository struct {
	db      *DB
	timeout time.Duration
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository(db *DB, timeout time.Duration) *ItemRepository {
	return &ItemRepository{db: db, timeout: timeout}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it domain.Item
		id int64
	)
	if err := row.Scan(&id, &it.Name, &it.Category, &it.Price, &it.Quantity, &it.Version, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.ID = formatID(id)
	it.CreatedAt, it.UpdatedAt = it.CreatedAt.UTC(), it.UpdatedAt.UTC()
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, f domain.ItemFields) (*domain.Item, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO items (name, category, price, quantity, version, created_at, updated_at) VALUES (?, ?, ?, ?, 1, ?, ?)`,
		f.Name, f.Category, f.Price, f.Quantity, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, storeErr("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("insert item", err)
	}

	it := &domain.Item{ID: formatID(id), Version: 1, CreatedAt: now, UpdatedAt: now}
	f.Apply(it)
	return it, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	it, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeErr("find item", err)
	}
	return it, nil
}

// List returns matching items ordered by id, which follows insertion order.
func (r *ItemRepository) List(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	where, args := listWhere(f)
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list items", err)
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func listWhere(f ports.ItemFilter) (string, []any) {
	switch {
	case f.NameContains != nil:
		pattern := "%" + likeEscaper.Replace(strings.ToLower(*f.NameContains)) + "%"
		return ` WHERE LOWER(name) LIKE ? ESCAPE '!'`, []any{pattern}
	case f.Category != nil:
		return ` WHERE LOWER(category) = ?`, []any{strings.ToLower(*f.Category)}
	case f.MinPrice != nil && f.MaxPrice != nil:
		return ` WHERE price BETWEEN ? AND ?`, []any{*f.MinPrice, *f.MaxPrice}
	}
	return "", nil
}

func (r *ItemRepository) Update(ctx context.Context, id string, f domain.ItemFields) (*domain.Item, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin update", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, price = ?, quantity = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		f.Name, f.Category, f.Price, f.Quantity, time.Now().UTC(), n,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, storeErr("update item", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, storeErr("update item", err)
	} else if affected == 0 {
		return nil, domain.ErrItemNotFound
	}

	it, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, n))
	if err != nil {
		return nil, storeErr("reload item", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit update", err)
	}
	return it, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, n)
	if err != nil {
		return storeErr("delete item", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete item", err)
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// AdjustQuantity locks the row, applies a guarded update and reloads the row,
// all inside one transaction.
func (r *ItemRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Item, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin adjust", err)
	}
	defer tx.Rollback()

	var (
		name     string
		quantity int
	)
	err = tx.QueryRowContext(ctx, `SELECT name, quantity FROM items WHERE id = ?`+r.db.forUpdate(), n).Scan(&name, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeErr("lock item", err)
	}

	if quantity+delta > domain.MaxQuantity {
		return nil, domain.QuantityOverflow(quantity, delta)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE items SET quantity = quantity + ?, version = version + 1, updated_at = ? WHERE id = ? AND quantity + ? BETWEEN 0 AND ?`,
		delta, time.Now().UTC(), n, delta, domain.MaxQuantity,
	)
	if err != nil {
		return nil, storeErr("adjust quantity", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("adjust quantity", err)
	}
	if affected == 0 {
		if delta > 0 {
			return nil, domain.QuantityOverflow(quantity, delta)
		}
		return nil, &domain.InsufficientStockError{ItemName: name, Available: quantity, Requested: -delta}
	}

	it, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, n))
	if err != nil {
		return nil, storeErr("reload item", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit adjust", err)
	}
	return it, nil
}
