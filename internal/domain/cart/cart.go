package cart

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrEmptyCart    = errors.New("cart is empty")
)

type Item struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Cart is a buyer's persisted cart within one store. Checkout reads it as the
// line-item source and clears it once the order is durably created.
type Cart struct {
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Clear(ctx context.Context, userID string) error
}
