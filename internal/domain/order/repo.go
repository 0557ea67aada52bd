package order

import "context"

// Filter narrows admin order listings.
type Filter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Page          int
	Limit         int
}

// Repository persists orders. Update and Delete must apply optimistic
// concurrency: the write only succeeds when the stored version matches the
// order's Version (Update bumps Version on success). A version miss surfaces
// as ErrConcurrencyConflict.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListByStore(ctx context.Context, storeID string, f Filter) ([]*Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, o *Order) error
}
