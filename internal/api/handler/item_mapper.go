package handler

import (
	"math"
	"strconv"
	"strings"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// --- Request → Service input ---

func toItemFields(req itemRequest) domain.ItemFields {
	return domain.ItemFields{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
}

// toSearchQuery turns raw query parameters into a SearchQuery. Blank
// parameters count as absent.
func toSearchQuery(p searchParams) (ports.SearchQuery, error) {
	var q ports.SearchQuery
	if name := strings.TrimSpace(p.Name); name != "" {
		q.Name = &name
	}
	if category := strings.TrimSpace(p.Category); category != "" {
		q.Category = &category
	}

	var err error
	if q.MinPrice, err = parsePrice("minPrice", p.MinPrice); err != nil {
		return ports.SearchQuery{}, err
	}
	if q.MaxPrice, err = parsePrice("maxPrice", p.MaxPrice); err != nil {
		return ports.SearchQuery{}, err
	}
	return q, nil
}

func parsePrice(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.Invalid("%s must be a number", field)
	}
	return &v, nil
}

// parseQty reads the required qty query parameter. Range checks belong to
// the service.
func parseQty(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Invalid("qty is required")
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid("qty must be an integer")
	}
	return qty, nil
}

// replayKey scopes a client idempotency key to the caller.
func replayKey(userID, idempotencyKey string) string {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return ""
	}
	return userID + ":" + idempotencyKey
}

// --- Domain → HTTP response ---

func toItemResponse(it *domain.Item) itemResponse {
	return itemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Category:  it.Category,
		Price:     it.Price,
		Quantity:  it.Quantity,
		Version:   it.Version,
		CreatedAt: it.CreatedAt.UTC(),
		UpdatedAt: it.UpdatedAt.UTC(),
	}
}

func toItemListResponse(items []*domain.Item) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = toItemResponse(it)
	}
	return out
}
