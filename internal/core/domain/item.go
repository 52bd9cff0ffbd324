package domain

import (
	"math"
	"time"
)

// MaxQuantity is the largest stock level an item may hold. It matches the
// 32-bit quantity column of the SQL stores.
const MaxQuantity = math.MaxInt32

// Item is a catalog entry. Quantity never drops below zero.
type Item struct {
	ID        string
	Name      string
	Category  string
	Price     float64
	Quantity  int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemFields is the set of fields written by create and full update.
type ItemFields struct {
	Name     string
	Category string
	Price    float64
	Quantity int
}

// Apply overwrites the mutable fields of it with f.
func (f ItemFields) Apply(it *Item) {
	it.Name = f.Name
	it.Category = f.Category
	it.Price = f.Price
	it.Quantity = f.Quantity
}
