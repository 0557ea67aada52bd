// Package stock is the inventory-counting subsystem guarding per-variant
// available quantity. Quantities are mutated only through guarded debit and
// credit operations so that concurrent checkouts cannot oversell.
package stock

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound   = errors.New("stock entry not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports a failed debit together with the quantity
// that was actually available when the guard ran.
type InsufficientStockError struct {
	ProductID string
	Variant   string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%s: %d available", e.ProductID, e.Variant, e.Available)
}

// Ledger tracks available quantity per (product, variant).
//
// Debit must check and decrement in a single guarded operation, not
// read-then-write, so concurrent debits against the same variant cannot lose
// updates. Credit increments; callers are responsible for crediting at most
// once per originating debit.
type Ledger interface {
	Debit(ctx context.Context, productID, variant string, qty int) error
	Credit(ctx context.Context, productID, variant string, qty int) error
	Available(ctx context.Context, productID, variant string) (int, error)
}
