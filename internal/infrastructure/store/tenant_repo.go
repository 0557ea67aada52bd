package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/tenant"
)

type PostgresStores struct {
	db *sql.DB
}

func NewPostgresStores(db *sql.DB) *PostgresStores {
	return &PostgresStores{db: db}
}

func (r *PostgresStores) GetStore(ctx context.Context, storeID string) (*tenant.Store, error) {
	var st tenant.Store
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, notify_email, shipping_flat, mp_enabled, mp_access_token, mp_public_key
		 FROM stores WHERE id = $1`, storeID,
	).Scan(&st.ID, &st.Name, &st.NotifyEmail, &st.ShippingFlat,
		&st.Payment.Enabled, &st.Payment.AccessToken, &st.Payment.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenant.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
