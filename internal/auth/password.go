package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines the contract for password operations, allowing the
// service to swap algorithms or mock hashing in tests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher using bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher at cost 12.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: 12}
}

// Hash returns the bcrypt hash of password. Length/charset validation is the
// Service's responsibility, not the hasher's.
func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", Wrap(Internal, "auth: hashing password", err)
	}
	return string(bytes), nil
}

// Compare reports whether password matches hash, as a *auth.Error with Kind
// Unauthenticated on mismatch so callers never need to inspect bcrypt's own
// sentinel errors.
func (h *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Wrap(Unauthenticated, "auth: password does not match", err)
	}
	return nil
}
