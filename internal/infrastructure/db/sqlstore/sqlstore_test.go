package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(context.Background(), SQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// idempotent
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return db
}

func TestOpen_UnknownDialect(t *testing.T) {
	if _, err := Open(context.Background(), Dialect("postgres"), "x"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(openTestDB(t), time.Second)
	ctx := context.Background()

	u, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected created user: %+v", u)
	}

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "h" {
		t.Fatalf("find by email: %v %+v", err, byEmail)
	}
	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != "alice@example.com" || byID.Role != domain.RoleUser {
		t.Fatalf("find by id: %v %+v", err, byID)
	}

	if _, err := repo.FindByEmail(ctx, "ALICE@example.com"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("email lookup must be case-sensitive, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "abc"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t), time.Second)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, &domain.User{Username: "bob", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestItemRepository_CRUD(t *testing.T) {
	repo := NewItemRepository(openTestDB(t), time.Second)
	ctx := context.Background()

	it, err := repo.Create(ctx, domain.ItemFields{Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.ID == "" || it.Version != 1 {
		t.Fatalf("unexpected item: %+v", it)
	}

	if _, err := repo.Create(ctx, domain.ItemFields{Name: "Ladoo", Price: 1}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	got, err := repo.FindByID(ctx, it.ID)
	if err != nil || got.Name != "Ladoo" || got.Price != 50 || got.Quantity != 10 {
		t.Fatalf("find: %v %+v", err, got)
	}

	updated, err := repo.Update(ctx, it.ID, domain.ItemFields{Name: "Besan Ladoo", Category: "Traditional", Price: 55, Quantity: 8})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Besan Ladoo" || updated.Quantity != 8 || updated.Version != 2 {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if _, err := repo.Update(ctx, "999", domain.ItemFields{Name: "x"}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, it.ID); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, it.ID); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemRepository_UpdateDuplicateName(t *testing.T) {
	repo := NewItemRepository(openTestDB(t), time.Second)
	ctx := context.Background()

	a, _ := repo.Create(ctx, domain.ItemFields{Name: "Ladoo", Price: 1})
	_, _ = repo.Create(ctx, domain.ItemFields{Name: "Barfi", Price: 1})

	if _, err := repo.Update(ctx, a.ID, domain.ItemFields{Name: "Barfi", Price: 1}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestItemRepository_ListFilters(t *testing.T) {
	repo := NewItemRepository(openTestDB(t), time.Second)
	ctx := context.Background()

	for _, f := range []domain.ItemFields{
		{Name: "Kaju Katli", Category: "Dry Fruit", Price: 120, Quantity: 5},
		{Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 10},
		{Name: "100% Cocoa_Bar", Category: "Chocolate", Price: 80, Quantity: 2},
		{Name: "Rasgulla", Category: "Bengali", Price: 30, Quantity: 8},
	} {
		if _, err := repo.Create(ctx, f); err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
	}

	name := func(s string) *string { return &s }
	price := func(f float64) *float64 { return &f }

	tests := []struct {
		name   string
		filter ports.ItemFilter
		want   string
	}{
		{"all in insertion order", ports.ItemFilter{}, "Kaju Katli,Ladoo,100% Cocoa_Bar,Rasgulla"},
		{"name substring case-insensitive", ports.ItemFilter{NameContains: name("LA")}, "Ladoo,Rasgulla"},
		{"percent is literal", ports.ItemFilter{NameContains: name("%")}, "100% Cocoa_Bar"},
		{"underscore is literal", ports.ItemFilter{NameContains: name("a_b")}, "100% Cocoa_Bar"},
		{"category equality", ports.ItemFilter{Category: name("bengali")}, "Rasgulla"},
		{"category is not substring", ports.ItemFilter{Category: name("Beng")}, ""},
		{"price inclusive", ports.ItemFilter{MinPrice: price(30), MaxPrice: price(80)}, "Ladoo,100% Cocoa_Bar,Rasgulla"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.Name)
			}
			if strings.Join(got, ",") != tt.want {
				t.Fatalf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestItemRepository_AdjustQuantity(t *testing.T) {
	repo := NewItemRepository(openTestDB(t), time.Second)
	ctx := context.Background()
	it, _ := repo.Create(ctx, domain.ItemFields{Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 10})

	got, err := repo.AdjustQuantity(ctx, it.ID, -3)
	if err != nil || got.Quantity != 7 || got.Version != 2 {
		t.Fatalf("purchase 3: %v %+v", err, got)
	}

	_, err = repo.AdjustQuantity(ctx, it.ID, -10)
	var short *domain.InsufficientStockError
	if !errors.As(err, &short) || short.Available != 7 || short.Requested != 10 || short.ItemName != "Ladoo" {
		t.Fatalf("expected InsufficientStockError{7,10}, got %v", err)
	}

	got, err = repo.AdjustQuantity(ctx, it.ID, 5)
	if err != nil || got.Quantity != 12 {
		t.Fatalf("restock 5: %v %+v", err, got)
	}

	if _, err := repo.AdjustQuantity(ctx, "12345", -1); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemRepository_AdjustQuantity_Overflow(t *testing.T) {
	repo := NewItemRepository(openTestDB(t), time.Second)
	ctx := context.Background()
	it, _ := repo.Create(ctx, domain.ItemFields{Name: "Ladoo", Price: 50, Quantity: 10})

	_, err := repo.AdjustQuantity(ctx, it.ID, domain.MaxQuantity)
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	got, _ := repo.FindByID(ctx, it.ID)
	if got.Quantity != 10 || got.Version != 1 {
		t.Fatalf("overflowing restock changed the row: %+v", got)
	}

	got, err = repo.AdjustQuantity(ctx, it.ID, domain.MaxQuantity-10)
	if err != nil || got.Quantity != domain.MaxQuantity {
		t.Fatalf("restock to the limit: %v %+v", err, got)
	}
}

func TestItemRepository_ConcurrentPurchases(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		each      int
		successes int
		final     int
	}{
		{"sum exceeds stock", 5, 3, 1, 2},
		{"sum equals stock", 6, 3, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewItemRepository(openTestDB(t), 5*time.Second)
			ctx := context.Background()
			it, err := repo.Create(ctx, domain.ItemFields{Name: "Soan Papdi", Price: 25, Quantity: tt.stock})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = repo.AdjustQuantity(ctx, it.ID, -tt.each)
				}(i)
			}
			wg.Wait()

			successes := 0
			for _, err := range errs {
				if err == nil {
					successes++
				} else if !errors.Is(err, domain.ErrInsufficientStock) {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if successes != tt.successes {
				t.Fatalf("expected %d successes, got %d", tt.successes, successes)
			}

			final, _ := repo.FindByID(ctx, it.ID)
			if final.Quantity != tt.final {
				t.Fatalf("expected final quantity %d, got %d", tt.final, final.Quantity)
			}
		})
	}
}

func TestStoreErr(t *testing.T) {
	if err := storeErr("op", context.DeadlineExceeded); !domain.IsRetriable(err) {
		t.Fatalf("deadline must be retriable, got %v", err)
	}
	if err := storeErr("op", errors.New("syntax error")); domain.IsRetriable(err) {
		t.Fatalf("syntax error must not be retriable")
	}
}
