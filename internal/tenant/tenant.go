// Package tenant exposes per-store configuration consumed by the order core.
package tenant

import (
	"context"
	"errors"
)

var ErrStoreNotFound = errors.New("store not found")

// PaymentConfig is a store's gateway configuration. AccessToken, when set,
// overrides the platform-level credential for intents created on behalf of
// the store. The public key is safe to expose to buyers; the access token
// never is.
type PaymentConfig struct {
	Enabled     bool   `json:"enabled"`
	AccessToken string `json:"-"`
	PublicKey   string `json:"public_key"`
}

type Store struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	NotifyEmail  string        `json:"notify_email"`
	ShippingFlat int64         `json:"shipping_flat"`
	Payment      PaymentConfig `json:"payment"`
}

type Provider interface {
	GetStore(ctx context.Context, storeID string) (*Store, error)
}
