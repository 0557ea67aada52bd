package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/catalog"
)

// PostgresCatalog satisfies the catalog contract from the products table the
// catalog service maintains.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	var p catalog.Product
	err := c.db.QueryRowContext(ctx,
		`SELECT id, store_id, name, price FROM products WHERE id = $1`, productID,
	).Scan(&p.ID, &p.StoreID, &p.Name, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
