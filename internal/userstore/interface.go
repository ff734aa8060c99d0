// Package userstore defines the contract the Authentication Service
// consumes for CRUD over user records, and a Postgres-backed
// implementation. Storage is external to the core per spec.md §1; this
// package is the one concrete adapter the service is wired to.
package userstore

import (
	"context"
	"time"
)

// User is a persisted account record. PasswordDigest is never exposed
// beyond the Password Hasher and this store.
type User struct {
	UserID         string
	Email          string
	DisplayName    string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Active         bool
}

// Patch describes a partial update to a user record; nil fields are left
// unchanged.
type Patch struct {
	Email          *string
	DisplayName    *string
	PasswordDigest *string
}

// Store is the contract consumed by the Authentication Service.
type Store interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, userID, email, displayName, passwordDigest string) (*User, error)
	Update(ctx context.Context, userID string, patch Patch) (*User, error)
	SetPassword(ctx context.Context, userID, passwordDigest string) error
	SoftDelete(ctx context.Context, userID string) error
}
