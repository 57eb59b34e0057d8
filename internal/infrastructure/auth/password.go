package auth

import (
	"errors"
	"fmt"

	"github.com/belgrano/backend/internal/domain/identity"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", identity.MinPasswordLength)
	ErrPasswordMismatch = errors.New("password does not match")
)

// PasswordHasher hashes and verifies passwords with bcrypt
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher; cost <= 0 uses the default cost
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = bcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash validates the length and returns the bcrypt hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) < identity.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify returns ErrPasswordMismatch when password does not match hash
func (h *PasswordHasher) Verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
