package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/example/storefront/internal/domain/cart"
)

type PostgresCartRepo struct {
	db *sql.DB
}

func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

func (r *PostgresCartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	var items []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, store_id, items, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &c.StoreID, &items, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
