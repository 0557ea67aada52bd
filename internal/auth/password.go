package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// bcrypt cost 12 keeps hashing around 250ms on current hardware, slow
// enough to blunt offline guessing without hurting login latency.
const (
	hashCost          = 12
	minPasswordLength = 8
)

// HashPassword derives a bcrypt hash for storage. The minimum length is
// enforced here so every caller (signup, seeding, password reset) shares
// the same policy.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
// Malformed hashes count as a mismatch rather than an error.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
