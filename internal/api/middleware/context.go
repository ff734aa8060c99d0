package middleware

import (
	"context"
	"fmt"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions with
// other packages using plain strings.
type contextKey string

// Context keys for request-scoped values.
const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// GetUserID safely extracts the authenticated user's id from context.
func GetUserID(ctx context.Context) (string, error) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return "", fmt.Errorf("user_id not found in context")
	}
	id, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("user_id has wrong type: %T", val)
	}
	return id, nil
}

// GetRoles safely extracts the authenticated user's role set from context.
func GetRoles(ctx context.Context) (auth.RoleSet, error) {
	val := ctx.Value(RolesKey)
	if val == nil {
		return nil, fmt.Errorf("roles not found in context")
	}
	roles, ok := val.(auth.RoleSet)
	if !ok {
		return nil, fmt.Errorf("roles has wrong type: %T", val)
	}
	return roles, nil
}

// MustGetUserID extracts the user id and panics if not found. Use only
// where requireAuth is guaranteed to have run first.
func MustGetUserID(ctx context.Context) string {
	id, err := GetUserID(ctx)
	if err != nil {
		panic(fmt.Sprintf("CRITICAL: %v", err))
	}
	return id
}
