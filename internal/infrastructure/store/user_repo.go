package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/auth"
)

type PostgresUserRepo struct {
	db *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return r.get(ctx, `SELECT id, email, name, password_hash, role, store_id, created_at FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.get(ctx, `SELECT id, email, name, password_hash, role, store_id, created_at FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) get(ctx context.Context, query, arg string) (*auth.User, error) {
	var u auth.User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.StoreID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, u *auth.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, store_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.StoreID, u.CreatedAt,
	)
	return err
}
