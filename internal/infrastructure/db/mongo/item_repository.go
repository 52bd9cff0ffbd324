package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const collectionItems = "items"

type ItemRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository(db *mongo.Database, timeout time.Duration) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems), timeout: timeout}
}

type mongoItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Category  string             `bson:"category"`
	Price     float64            `bson:"price"`
	Quantity  int                `bson:"quantity"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m mongoItem) toDomain() *domain.Item {
	return &domain.Item{
		ID:        m.ID.Hex(),
		Name:      m.Name,
		Category:  m.Category,
		Price:     m.Price,
		Quantity:  m.Quantity,
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (r *ItemRepository) Create(ctx context.Context, f domain.ItemFields) (*domain.Item, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := mongoItem{
		Name:      f.Name,
		Category:  f.Category,
		Price:     f.Price,
		Quantity:  f.Quantity,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, storeErr("insert item", err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var m mongoItem
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeErr("find item", err)
	}
	return m.toDomain(), nil
}

// List returns matching items ordered by _id, which follows insertion order.
func (r *ItemRepository) List(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, listFilter(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeErr("list items", err)
	}
	defer cur.Close(ctx)

	items := []*domain.Item{}
	for cur.Next(ctx) {
		var m mongoItem
		if err := cur.Decode(&m); err != nil {
			return nil, storeErr("decode item", err)
		}
		items = append(items, m.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("list items", err)
	}
	return items, nil
}

func listFilter(f ports.ItemFilter) bson.M {
	switch {
	case f.NameContains != nil:
		return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(*f.NameContains), Options: "i"}}
	case f.Category != nil:
		return bson.M{"category": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(*f.Category) + "$", Options: "i"}}
	case f.MinPrice != nil && f.MaxPrice != nil:
		return bson.M{"price": bson.M{"$gte": *f.MinPrice, "$lte": *f.MaxPrice}}
	}
	return bson.M{}
}

func (r *ItemRepository) Update(ctx context.Context, id string, f domain.ItemFields) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":       f.Name,
			"category":   f.Category,
			"price":      f.Price,
			"quantity":   f.Quantity,
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	var m mongoItem
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, afterUpdate()).Decode(&m)
	switch {
	case err == nil:
		return m.toDomain(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrItemNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrDuplicateName
	}
	return nil, storeErr("update item", err)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("delete item", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// adjustAttempts bounds how often AdjustQuantity re-runs its conditional
// update when a concurrent write moves the stock between update and re-read.
const adjustAttempts = 3

// AdjustQuantity applies delta with a single conditional update: the filter
// only matches while the stored quantity can absorb the change. When nothing
// matches the item is re-read, and the update is retried if the fresh quantity
// would now accept delta.
func (r *ItemRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	bound := bson.M{"$gte": -delta}
	if delta > 0 {
		bound = bson.M{"$lte": domain.MaxQuantity - delta}
	}
	filter := bson.M{"_id": oid, "quantity": bound}

	for attempt := 0; attempt < adjustAttempts; attempt++ {
		item, err := r.adjustOnce(ctx, filter, delta)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storeErr("adjust quantity", err)
		}

		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		next := current.Quantity + delta
		switch {
		case next < 0:
			return nil, &domain.InsufficientStockError{ItemName: current.Name, Available: current.Quantity, Requested: -delta}
		case next > domain.MaxQuantity:
			return nil, domain.QuantityOverflow(current.Quantity, delta)
		}
	}
	return nil, domain.Unavailable("adjust quantity", errors.New("stock changed on every attempt"))
}

func (r *ItemRepository) adjustOnce(ctx context.Context, filter bson.M, delta int) (*domain.Item, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"quantity": delta, "version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	var m mongoItem
	if err := r.col.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&m); err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
