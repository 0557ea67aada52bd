package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/lib/pq"
)

// PostgresOrderRepo implements order.Repository. Update uses a version-guarded
// write: two concurrent writers cannot silently overwrite each other, the
// loser gets order.ErrConcurrencyConflict.
type PostgresOrderRepo struct {
	db *sql.DB
}

func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

const orderColumns = `id, code, store_id, user_id, status, payment_status, payment_method,
	subtotal, tax, shipping_cost, discount, total, notes, delivered_at,
	items, address, history, payments, transaction_data, created_at, updated_at, version`

func (r *PostgresOrderRepo) Create(ctx context.Context, o *order.Order) error {
	items, address, history, payments, txn, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		o.ID, o.Code, o.StoreID, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.Subtotal, o.Tax, o.ShippingCost, o.Discount, o.Total, o.Notes, o.DeliveredAt,
		items, address, history, payments, txn, o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// Order code collision; extremely rare, caller retries checkout.
			return fmt.Errorf("order code %s already exists: %w", o.Code, err)
		}
		return err
	}
	return nil
}

func (r *PostgresOrderRepo) Get(ctx context.Context, id string) (*order.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *PostgresOrderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *PostgresOrderRepo) ListByStore(ctx context.Context, storeID string, f order.Filter) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1`
	args := []any{storeID}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, (page-1)*limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *PostgresOrderRepo) Update(ctx context.Context, o *order.Order) error {
	items, address, history, payments, txn, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
			status = $1, payment_status = $2, notes = $3, delivered_at = $4,
			items = $5, address = $6, history = $7, payments = $8, transaction_data = $9,
			updated_at = $10, version = version + 1
		 WHERE id = $11 AND version = $12`,
		o.Status, o.PaymentStatus, o.Notes, o.DeliveredAt,
		items, address, history, payments, txn,
		o.UpdatedAt, o.ID, o.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return order.ErrOrderNotFound
		}
		return order.ErrConcurrencyConflict
	}
	o.Version++
	return nil
}

func (r *PostgresOrderRepo) Delete(ctx context.Context, o *order.Order) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND version = $2`, o.ID, o.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return order.ErrOrderNotFound
		}
		return order.ErrConcurrencyConflict
	}
	return nil
}

func marshalOrderJSON(o *order.Order) (items, address, history, payments, txn []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return
	}
	if address, err = json.Marshal(o.Address); err != nil {
		return
	}
	if history, err = json.Marshal(o.History); err != nil {
		return
	}
	if payments, err = json.Marshal(o.Payments); err != nil {
		return
	}
	txn, err = json.Marshal(o.Transaction)
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var items, address, history, payments, txn []byte
	err := row.Scan(
		&o.ID, &o.Code, &o.StoreID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.Discount, &o.Total, &o.Notes, &o.DeliveredAt,
		&items, &address, &history, &payments, &txn, &o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &o.History); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payments, &o.Payments); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(txn, &o.Transaction); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*order.Order, error) {
	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
