package domain

import "time"

// StockEventKind identifies which stock transition produced an event.
type StockEventKind string

const (
	StockPurchased StockEventKind = "purchased"
	StockRestocked StockEventKind = "restocked"
)

// StockEvent describes a committed change to an item's quantity.
type StockEvent struct {
	Kind     StockEventKind `json:"kind"`
	ItemID   string         `json:"item_id"`
	ItemName string         `json:"item_name"`
	Delta    int            `json:"delta"`
	Quantity int            `json:"quantity"`
	LowStock bool           `json:"low_stock"`
	At       time.Time      `json:"at"`
}
