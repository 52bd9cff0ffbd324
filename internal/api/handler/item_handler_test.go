package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/sweetshop/inventory-api/internal/api/middleware"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// stubItemService records the last call and returns canned results.
type stubItemService struct {
	item  *domain.Item
	items []*domain.Item
	err   error

	gotID     string
	gotQty    int
	gotKey    string
	gotFields domain.ItemFields
	gotQuery  ports.SearchQuery
}

func (s *stubItemService) AddItem(_ context.Context, f domain.ItemFields) (*domain.Item, error) {
	s.gotFields = f
	return s.item, s.err
}

func (s *stubItemService) GetItem(_ context.Context, id string) (*domain.Item, error) {
	s.gotID = id
	return s.item, s.err
}

func (s *stubItemService) ListAll(context.Context) ([]*domain.Item, error) {
	return s.items, s.err
}

func (s *stubItemService) Search(_ context.Context, q ports.SearchQuery) ([]*domain.Item, error) {
	s.gotQuery = q
	return s.items, s.err
}

func (s *stubItemService) UpdateItem(_ context.Context, id string, f domain.ItemFields) (*domain.Item, error) {
	s.gotID, s.gotFields = id, f
	return s.item, s.err
}

func (s *stubItemService) DeleteItem(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

func (s *stubItemService) Purchase(_ context.Context, id string, qty int, key string) (*domain.Item, error) {
	s.gotID, s.gotQty, s.gotKey = id, qty, key
	return s.item, s.err
}

func (s *stubItemService) Restock(_ context.Context, id string, qty int) (*domain.Item, error) {
	s.gotID, s.gotQty = id, qty
	return s.item, s.err
}

var ladoo = &domain.Item{ID: "1", Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 7, Version: 2}

func TestItemHandler_List(t *testing.T) {
	stub := &stubItemService{items: []*domain.Item{ladoo}}
	h := NewItemHandler(stub)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/api/sweets", "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []itemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Ladoo" || resp[0].Quantity != 7 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestItemHandler_List_EmptyIsArray(t *testing.T) {
	h := NewItemHandler(&stubItemService{items: []*domain.Item{}})
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/api/sweets", "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestItemHandler_Search(t *testing.T) {
	stub := &stubItemService{items: []*domain.Item{ladoo}}
	h := NewItemHandler(stub)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/api/sweets/search?category=Traditional&minPrice=10&maxPrice=60", "")

	if err := h.Search(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	q := stub.gotQuery
	if q.Name != nil || q.Category == nil || *q.Category != "Traditional" || *q.MinPrice != 10 || *q.MaxPrice != 60 {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestItemHandler_Search_BadPrice(t *testing.T) {
	h := NewItemHandler(&stubItemService{})
	c, _ := jsonContext(newTestEcho(), http.MethodGet, "/api/sweets/search?minPrice=abc&maxPrice=5", "")

	if err := h.Search(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestItemHandler_Create(t *testing.T) {
	stub := &stubItemService{item: ladoo}
	h := NewItemHandler(stub)
	c, rec := jsonContext(newTestEcho(), http.MethodPost, "/api/sweets", `{"name":"Ladoo","category":"Traditional","price":50,"quantity":10}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.gotFields != (domain.ItemFields{Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 10}) {
		t.Fatalf("unexpected fields: %+v", stub.gotFields)
	}
}

func TestItemHandler_Create_Validation(t *testing.T) {
	h := NewItemHandler(&stubItemService{item: ladoo})

	for name, body := range map[string]string{
		"missing name":      `{"price":1,"quantity":1}`,
		"negative price":    `{"name":"x","price":-1,"quantity":1}`,
		"negative quantity": `{"name":"x","price":1,"quantity":-1}`,
		"wrong type":        `{"name":"x","price":"cheap"}`,
	} {
		c, _ := jsonContext(newTestEcho(), http.MethodPost, "/api/sweets", body)
		if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestItemHandler_UpdateAndDelete(t *testing.T) {
	stub := &stubItemService{item: ladoo}
	h := NewItemHandler(stub)

	c, rec := jsonContext(newTestEcho(), http.MethodPut, "/api/sweets/1", `{"name":"Ladoo","price":55,"quantity":3}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Update(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("update: %v %d", err, rec.Code)
	}
	if stub.gotID != "1" || stub.gotFields.Price != 55 {
		t.Fatalf("unexpected update call: %s %+v", stub.gotID, stub.gotFields)
	}

	c, rec = jsonContext(newTestEcho(), http.MethodDelete, "/api/sweets/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Delete(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %v %d", err, rec.Code)
	}

	stub.err = domain.ErrItemNotFound
	c, _ = jsonContext(newTestEcho(), http.MethodDelete, "/api/sweets/9", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	if err := h.Delete(c); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemHandler_Purchase(t *testing.T) {
	stub := &stubItemService{item: ladoo}
	h := NewItemHandler(stub)

	c, rec := jsonContext(newTestEcho(), http.MethodPost, "/api/sweets/1/purchase?qty=3", "")
	c.Request().Header.Set("Idempotency-Key", "order-9")
	c.Set(middleware.ContextUserID, "u-1")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Purchase(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotID != "1" || stub.gotQty != 3 || stub.gotKey != "u-1:order-9" {
		t.Fatalf("unexpected call: id=%s qty=%d key=%s", stub.gotID, stub.gotQty, stub.gotKey)
	}
}

func TestItemHandler_Purchase_BadQty(t *testing.T) {
	h := NewItemHandler(&stubItemService{item: ladoo})

	for _, target := range []string{"/api/sweets/1/purchase", "/api/sweets/1/purchase?qty=two"} {
		c, _ := jsonContext(newTestEcho(), http.MethodPost, target, "")
		c.Set(middleware.ContextUserID, "u-1")
		if err := h.Purchase(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", target, err)
		}
	}
}

func TestItemHandler_Purchase_InsufficientStock(t *testing.T) {
	stub := &stubItemService{err: &domain.InsufficientStockError{ItemName: "Ladoo", Available: 7, Requested: 10}}
	h := NewItemHandler(stub)

	c, _ := jsonContext(newTestEcho(), http.MethodPost, "/api/sweets/1/purchase?qty=10", "")
	c.Set(middleware.ContextUserID, "u-1")

	if err := h.Purchase(c); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if stub.gotKey != "" {
		t.Fatalf("no header means no replay key, got %q", stub.gotKey)
	}
}

func TestItemHandler_Restock(t *testing.T) {
	stub := &stubItemService{item: ladoo}
	h := NewItemHandler(stub)

	c, rec := jsonContext(newTestEcho(), http.MethodPost, "/api/sweets/1/restock?qty=5", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Restock(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("restock: %v %d", err, rec.Code)
	}
	if stub.gotQty != 5 {
		t.Fatalf("expected qty 5, got %d", stub.gotQty)
	}
}
