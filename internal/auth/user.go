package auth

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User is the identity record consumed by login and by the notifier when it
// resolves a recipient address. Identity management itself (registration,
// profiles) lives outside this service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	StoreID      string    `json:"store_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}
