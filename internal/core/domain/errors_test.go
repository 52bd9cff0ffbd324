package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInsufficientStockError_MatchesSentinel(t *testing.T) {
	var err error = &InsufficientStockError{ItemName: "Ladoo", Available: 7, Requested: 10}

	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected errors.Is to match ErrInsufficientStock")
	}
	wrapped := errors.Join(errors.New("purchase"), err)
	var ise *InsufficientStockError
	if !errors.As(wrapped, &ise) {
		t.Fatalf("expected errors.As to find InsufficientStockError")
	}
	if ise.Available != 7 || ise.Requested != 10 {
		t.Fatalf("unexpected details: %+v", ise)
	}
	if !strings.Contains(err.Error(), "Ladoo") {
		t.Fatalf("message should name the item: %s", err.Error())
	}
}

func TestInvalid_WrapsInvalidInput(t *testing.T) {
	err := Invalid("%s is required", "email")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err.Error() != "invalid input: email is required" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestUnavailable_KeepsCauseAndIsRetriable(t *testing.T) {
	err := Unavailable("find item", context.DeadlineExceeded)
	if !IsRetriable(err) {
		t.Fatalf("expected retriable error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be preserved")
	}
	if IsRetriable(ErrItemNotFound) {
		t.Fatalf("not found must not be retriable")
	}
}

func TestValidRole(t *testing.T) {
	cases := map[string]bool{RoleAdmin: true, RoleUser: true, "": false, "admin": false, "ROOT": false}
	for role, want := range cases {
		if got := ValidRole(role); got != want {
			t.Errorf("ValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&InsufficientStockError{ItemName: "Ladoo", Available: 1, Requested: 2}, "insufficient_stock"},
		{ErrInvalidQuantity, "invalid_quantity"},
		{Invalid("name is required"), "invalid_input"},
		{fmt.Errorf("wrapped: %w", ErrDuplicateName), "duplicate_name"},
		{ErrItemNotFound, "not_found"},
		{Unavailable("op", errors.New("io")), "store_unavailable"},
		{ErrPurchaseInProgress, "purchase_in_progress"},
		{QuantityOverflow(10, MaxQuantity), "invalid_quantity"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsRetriable(t *testing.T) {
	if !IsRetriable(ErrPurchaseInProgress) {
		t.Fatalf("an in-flight idempotent purchase must be retriable")
	}
	if IsRetriable(QuantityOverflow(1, MaxQuantity)) || IsRetriable(&InsufficientStockError{}) {
		t.Fatalf("deterministic failures must not be retriable")
	}
}
