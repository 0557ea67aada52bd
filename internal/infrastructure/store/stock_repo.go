package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/domain/stock"
)

// PostgresStockLedger implements stock.Ledger. The debit guard and the
// decrement are one statement, so concurrent debits against the same variant
// serialize on the row lock instead of racing a read-then-write.
type PostgresStockLedger struct {
	db *sql.DB
}

func NewPostgresStockLedger(db *sql.DB) *PostgresStockLedger {
	return &PostgresStockLedger{db: db}
}

func (l *PostgresStockLedger) Debit(ctx context.Context, productID, variant string, qty int) error {
	if qty <= 0 {
		return stock.ErrInvalidQuantity
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE stock SET quantity = quantity - $3
		 WHERE product_id = $1 AND variant = $2 AND quantity >= $3`,
		productID, variant, qty,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Guard failed: distinguish a missing entry from insufficient quantity.
	var available int
	err = l.db.QueryRowContext(ctx,
		`SELECT quantity FROM stock WHERE product_id = $1 AND variant = $2`,
		productID, variant,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return stock.ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	return &stock.InsufficientStockError{ProductID: productID, Variant: variant, Available: available}
}

func (l *PostgresStockLedger) Credit(ctx context.Context, productID, variant string, qty int) error {
	if qty <= 0 {
		return stock.ErrInvalidQuantity
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO stock (product_id, variant, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, variant) DO UPDATE SET quantity = stock.quantity + $3`,
		productID, variant, qty,
	)
	return err
}

func (l *PostgresStockLedger) Available(ctx context.Context, productID, variant string) (int, error) {
	var available int
	err := l.db.QueryRowContext(ctx,
		`SELECT quantity FROM stock WHERE product_id = $1 AND variant = $2`,
		productID, variant,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, stock.ErrEntryNotFound
	}
	if err != nil {
		return 0, err
	}
	return available, nil
}
