package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

func TestToSearchQuery(t *testing.T) {
	q, err := toSearchQuery(searchParams{Name: "  lad ", Category: " ", MinPrice: "1.5", MaxPrice: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name == nil || *q.Name != "lad" {
		t.Fatalf("name not trimmed: %+v", q.Name)
	}
	if q.Category != nil || q.MaxPrice != nil {
		t.Fatalf("blank params must be absent: %+v", q)
	}
	if q.MinPrice == nil || *q.MinPrice != 1.5 {
		t.Fatalf("unexpected minPrice: %v", q.MinPrice)
	}

	if q, err := toSearchQuery(searchParams{}); err != nil || q != (ports.SearchQuery{}) {
		t.Fatalf("empty params must yield empty query, got %+v %v", q, err)
	}

	for _, raw := range []string{"abc", "NaN", "Inf"} {
		if _, err := toSearchQuery(searchParams{MinPrice: raw}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("minPrice=%q: expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestParseQty(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 0 ", 0, false},
		{"-1", -1, false},
		{"", 0, true},
		{"1.5", 0, true},
	}
	for _, tc := range cases {
		got, err := parseQty(tc.raw)
		if (err != nil) != tc.wantErr || (!tc.wantErr && got != tc.want) {
			t.Errorf("parseQty(%q) = %d, %v", tc.raw, got, err)
		}
	}
}

func TestReplayKey(t *testing.T) {
	if got := replayKey("u-1", " k "); got != "u-1:k" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := replayKey("u-1", ""); got != "" {
		t.Fatalf("blank header must disable replay, got %q", got)
	}
}

func TestToItemResponse(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	it := &domain.Item{ID: "1", Name: "Ladoo", Category: "Traditional", Price: 50, Quantity: 7, Version: 3,
		CreatedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, loc)}

	resp := toItemResponse(it)
	if resp.ID != "1" || resp.Name != "Ladoo" || resp.Price != 50 || resp.Quantity != 7 || resp.Version != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CreatedAt.Location() != time.UTC {
		t.Fatalf("timestamps must be UTC")
	}
	if got := toItemListResponse(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil list must map to an empty slice")
	}
}
