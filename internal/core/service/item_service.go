package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const catalogFlightKey = "catalog"

type ItemService struct {
	repo     ports.ItemRepository
	cache    ports.CatalogCache
	replay   ports.ReplayGuard
	events   ports.StockEventSink
	lowStock int
	group    singleflight.Group
	logger   zerolog.Logger
}

// ItemOption customises an ItemService.
type ItemOption func(*ItemService)

// WithCatalogCache serves ListAll through cache.
func WithCatalogCache(cache ports.CatalogCache) ItemOption {
	return func(s *ItemService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithReplayGuard enables idempotency keys on Purchase.
func WithReplayGuard(guard ports.ReplayGuard) ItemOption {
	return func(s *ItemService) {
		if guard != nil {
			s.replay = guard
		}
	}
}

// WithStockEvents emits a StockEvent after each committed purchase or restock.
// Events whose resulting quantity is at or below lowStock are flagged LowStock.
func WithStockEvents(sink ports.StockEventSink, lowStock int) ItemOption {
	return func(s *ItemService) {
		if sink != nil {
			s.events = sink
		}
		s.lowStock = lowStock
	}
}

func NewItemService(repo ports.ItemRepository, logger zerolog.Logger, opts ...ItemOption) *ItemService {
	s := &ItemService{
		repo:   repo,
		cache:  nopCache{},
		replay: nopReplay{},
		events: nopSink{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ItemService) AddItem(ctx context.Context, fields domain.ItemFields) (*domain.Item, error) {
	fields, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Int("quantity", item.Quantity).Msg("item created")
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if id == "" {
		return nil, domain.ErrItemNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// ListAll returns the whole catalog in insertion order. Concurrent cache misses
// share one store read.
func (s *ItemService) ListAll(ctx context.Context) ([]*domain.Item, error) {
	items, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache read failed, falling back to store")
	} else if ok {
		return items, nil
	}

	v, err, _ := s.group.Do(catalogFlightKey, func() (any, error) {
		// Read the generation before the store so an invalidation during the
		// read makes the Set below a no-op.
		gen, genErr := s.cache.Generation(ctx)
		if genErr != nil {
			s.logger.Warn().Err(genErr).Msg("catalog cache generation read failed")
		}

		fresh, err := s.repo.List(ctx, ports.ItemFilter{})
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			if err := s.cache.Set(ctx, fresh, gen); err != nil {
				s.logger.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Item), nil
}

// Search applies exactly one criterion: name, else category, else the price
// range when both bounds are present, else none.
func (s *ItemService) Search(ctx context.Context, q ports.SearchQuery) ([]*domain.Item, error) {
	var filter ports.ItemFilter
	switch {
	case q.Name != nil:
		filter.NameContains = q.Name
	case q.Category != nil:
		filter.Category = q.Category
	case q.MinPrice != nil && q.MaxPrice != nil:
		lo, hi := *q.MinPrice, *q.MaxPrice
		if invalidAmount(lo) || invalidAmount(hi) {
			return nil, domain.Invalid("price bounds must be non-negative")
		}
		if lo > hi {
			return nil, domain.Invalid("minPrice must not exceed maxPrice")
		}
		filter.MinPrice, filter.MaxPrice = q.MinPrice, q.MaxPrice
	default:
		return s.ListAll(ctx)
	}
	return s.repo.List(ctx, filter)
}

func (s *ItemService) UpdateItem(ctx context.Context, id string, fields domain.ItemFields) (*domain.Item, error) {
	if id == "" {
		return nil, domain.ErrItemNotFound
	}
	fields, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("item_id", item.ID).Msg("item updated")
	return item, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrItemNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

// Purchase removes qty units from stock. A non-empty idempotencyKey is
// reserved before the stock write: a repeat of a finished purchase returns the
// remembered result unchanged, and a repeat that overlaps the first attempt
// fails with domain.ErrPurchaseInProgress.
func (s *ItemService) Purchase(ctx context.Context, id string, qty int, idempotencyKey string) (*domain.Item, error) {
	if err := checkQty(qty); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrItemNotFound
	}

	replayKey := ""
	if idempotencyKey != "" {
		replayKey = id + ":" + idempotencyKey
		prev, reserved, err := s.replay.Reserve(ctx, replayKey)
		switch {
		case errors.Is(err, domain.ErrPurchaseInProgress):
			return nil, err
		case err != nil:
			s.logger.Warn().Err(err).Str("item_id", id).Msg("replay reservation failed, purchasing without it")
			replayKey = ""
		case !reserved:
			s.logger.Info().Str("item_id", id).Str("idempotency_key", idempotencyKey).Msg("idempotent replay")
			return prev, nil
		}
	}

	item, err := s.repo.AdjustQuantity(ctx, id, -qty)
	if err != nil {
		var short *domain.InsufficientStockError
		if errors.As(err, &short) {
			s.logger.Info().
				Str("item_id", id).
				Int("available", short.Available).
				Int("requested", short.Requested).
				Msg("purchase rejected")
		}
		if replayKey != "" {
			if rerr := s.replay.Release(ctx, replayKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("item_id", id).Msg("failed to release purchase reservation")
			}
		}
		return nil, err
	}
	s.committed(ctx, domain.StockPurchased, item, -qty)

	if replayKey != "" {
		if err := s.replay.Remember(ctx, replayKey, item); err != nil {
			s.logger.Warn().Err(err).Str("item_id", id).Msg("failed to remember purchase")
		}
	}
	return item, nil
}

// Restock adds qty units to stock.
func (s *ItemService) Restock(ctx context.Context, id string, qty int) (*domain.Item, error) {
	if err := checkQty(qty); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrItemNotFound
	}

	item, err := s.repo.AdjustQuantity(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	s.committed(ctx, domain.StockRestocked, item, qty)
	return item, nil
}

func (s *ItemService) committed(ctx context.Context, kind domain.StockEventKind, item *domain.Item, delta int) {
	s.invalidate(ctx)

	s.logger.Info().
		Str("item_id", item.ID).
		Str("kind", string(kind)).
		Int("delta", delta).
		Int("quantity", item.Quantity).
		Msg("stock changed")

	s.events.Enqueue(domain.StockEvent{
		Kind:     kind,
		ItemID:   item.ID,
		ItemName: item.Name,
		Delta:    delta,
		Quantity: item.Quantity,
		LowStock: item.Quantity <= s.lowStock,
		At:       time.Now().UTC(),
	})
}

func (s *ItemService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func validateFields(f domain.ItemFields) (domain.ItemFields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)
	switch {
	case f.Name == "":
		return f, domain.Invalid("name is required")
	case invalidAmount(f.Price):
		return f, domain.Invalid("price must be a non-negative number")
	case f.Quantity < 0:
		return f, domain.Invalid("quantity must be non-negative")
	case f.Quantity > domain.MaxQuantity:
		return f, domain.Invalid("quantity must not exceed %d", domain.MaxQuantity)
	}
	return f, nil
}

func checkQty(qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if qty > domain.MaxQuantity {
		return fmt.Errorf("%w: at most %d units per operation", domain.ErrInvalidQuantity, domain.MaxQuantity)
	}
	return nil
}

func invalidAmount(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

type nopCache struct{}

func (nopCache) Get(context.Context) ([]*domain.Item, bool, error) {
	return nil, false, nil
}

func (nopCache) Generation(context.Context) (int64, error) {
	return 0, nil
}

func (nopCache) Set(context.Context, []*domain.Item, int64) error {
	return nil
}

func (nopCache) Invalidate(context.Context) error {
	return nil
}

type nopReplay struct{}

func (nopReplay) Reserve(context.Context, string) (*domain.Item, bool, error) {
	return nil, true, nil
}

func (nopReplay) Remember(context.Context, string, *domain.Item) error {
	return nil
}

func (nopReplay) Release(context.Context, string) error {
	return nil
}

type nopSink struct{}

func (nopSink) Enqueue(domain.StockEvent) {}
