// Package catalog defines the narrow contract the order core consumes from
// the catalog subsystem. Product CRUD, search, and theming live elsewhere;
// checkout only needs server-trusted prices and tenant ownership.
package catalog

import (
	"context"
	"errors"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the slice of catalog data checkout cares about. Price is in cents.
type Product struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
}

type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}
