package handler

import "time"

// ErrorResponse is the standard error envelope returned on all 4xx/5xx responses.
// Available and Requested are set for insufficient stock only.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

type itemRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Category string  `json:"category" validate:"max=100"`
	Price    float64 `json:"price"    validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=0"`
}

type itemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// searchParams are the raw query parameters of GET /api/sweets/search.
type searchParams struct {
	Name     string
	Category string
	MinPrice string
	MaxPrice string
}
