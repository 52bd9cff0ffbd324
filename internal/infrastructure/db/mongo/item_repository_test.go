package mongo

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

func itemDoc(id primitive.ObjectID, name string, qty int) bson.D {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "category", Value: "Traditional"},
		{Key: "price", Value: 50.0},
		{Key: "quantity", Value: qty},
		{Key: "version", Value: int64(2)},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}
}

// noMatch is the findAndModify reply when the conditional filter matched nothing.
func noMatch() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
}

func updated(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func found(doc bson.D) bson.D {
	return mtest.CreateCursorResponse(0, "sweetshop.items", mtest.FirstBatch, doc)
}

func TestItemRepository_AdjustQuantity_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	oid := primitive.NewObjectID()

	mt.Run("applies the update", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		mt.AddMockResponses(updated(itemDoc(oid, "Ladoo", 7)))

		got, err := repo.AdjustQuantity(context.Background(), oid.Hex(), -3)
		if err != nil || got.Quantity != 7 {
			mt.Fatalf("expected quantity 7, got %+v %v", got, err)
		}
	})

	mt.Run("reports the stock it re-read", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		mt.AddMockResponses(noMatch(), found(itemDoc(oid, "Ladoo", 2)))

		_, err := repo.AdjustQuantity(context.Background(), oid.Hex(), -5)
		var short *domain.InsufficientStockError
		if !errors.As(err, &short) || short.Available != 2 || short.Requested != 5 || short.ItemName != "Ladoo" {
			mt.Fatalf("expected InsufficientStockError{2,5}, got %v", err)
		}
	})

	mt.Run("retries when a restock landed in between", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		mt.AddMockResponses(
			noMatch(),
			found(itemDoc(oid, "Ladoo", 10)),
			updated(itemDoc(oid, "Ladoo", 5)),
		)

		got, err := repo.AdjustQuantity(context.Background(), oid.Hex(), -5)
		if err != nil || got.Quantity != 5 {
			mt.Fatalf("expected retried purchase to succeed, got %+v %v", got, err)
		}
	})

	mt.Run("gives up when stock keeps moving", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		for i := 0; i < adjustAttempts; i++ {
			mt.AddMockResponses(noMatch(), found(itemDoc(oid, "Ladoo", 10)))
		}

		_, err := repo.AdjustQuantity(context.Background(), oid.Hex(), -5)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			mt.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	mt.Run("rejects a restock past the limit", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		mt.AddMockResponses(noMatch(), found(itemDoc(oid, "Ladoo", 10)))

		_, err := repo.AdjustQuantity(context.Background(), oid.Hex(), domain.MaxQuantity)
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			mt.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	mt.Run("missing item", func(mt *mtest.T) {
		repo := &ItemRepository{col: mt.Coll, timeout: time.Second}
		mt.AddMockResponses(noMatch(), mtest.CreateCursorResponse(0, "sweetshop.items", mtest.FirstBatch))

		if _, err := repo.AdjustQuantity(context.Background(), oid.Hex(), -1); !errors.Is(err, domain.ErrItemNotFound) {
			mt.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

// TestItemRepository_ConcurrentPurchases_Live runs against a real server when
// MONGO_TEST_URI is set.
func TestItemRepository_ConcurrentPurchases_Live(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	dbName := "sweetshop_test_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	client, db, err := Connect(ctx, Config{URI: uri, Database: dbName})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	repo := NewItemRepository(db, 5*time.Second)
	it, err := repo.Create(ctx, domain.ItemFields{Name: "Soan Papdi", Price: 25, Quantity: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.AdjustQuantity(ctx, it.ID, -2)
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
	if successes != 2 {
		t.Fatalf("expected 2 successes, got %d", successes)
	}
	final, err := repo.FindByID(ctx, it.ID)
	if err != nil || final.Quantity != 1 {
		t.Fatalf("expected final quantity 1, got %+v %v", final, err)
	}
}
