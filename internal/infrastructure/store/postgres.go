// Package store provides the PostgreSQL persistence layer: the order
// repository with optimistic concurrency, the guarded stock ledger, and the
// supporting cart, catalog, tenant, and user repositories.
package store

import (
	"database/sql"

	_ "github.com/lib/pq"
)

func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables this service owns. Idempotent.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id               UUID PRIMARY KEY,
			code             TEXT UNIQUE NOT NULL,
			store_id         TEXT NOT NULL,
			user_id          TEXT NOT NULL,
			status           TEXT NOT NULL,
			payment_status   TEXT NOT NULL,
			payment_method   TEXT NOT NULL,
			subtotal         BIGINT NOT NULL,
			tax              BIGINT NOT NULL,
			shipping_cost    BIGINT NOT NULL,
			discount         BIGINT NOT NULL,
			total            BIGINT NOT NULL,
			notes            TEXT NOT NULL DEFAULT '',
			delivered_at     TIMESTAMPTZ,
			items            JSONB NOT NULL,
			address          JSONB NOT NULL,
			history          JSONB NOT NULL,
			payments         JSONB NOT NULL,
			transaction_data JSONB NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL,
			version          INT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id);
		CREATE INDEX IF NOT EXISTS orders_store_idx ON orders (store_id);

		CREATE TABLE IF NOT EXISTS stock (
			product_id TEXT NOT NULL,
			variant    TEXT NOT NULL DEFAULT '',
			quantity   INT NOT NULL CHECK (quantity >= 0),
			PRIMARY KEY (product_id, variant)
		);

		CREATE TABLE IF NOT EXISTS carts (
			user_id    TEXT PRIMARY KEY,
			store_id   TEXT NOT NULL,
			items      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS products (
			id       TEXT PRIMARY KEY,
			store_id TEXT NOT NULL,
			name     TEXT NOT NULL,
			price    BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS stores (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			notify_email    TEXT NOT NULL DEFAULT '',
			shipping_flat   BIGINT NOT NULL DEFAULT 0,
			mp_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
			mp_access_token TEXT NOT NULL DEFAULT '',
			mp_public_key   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT UNIQUE NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			store_id      TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}
