package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// RequireRole builds a middleware that rejects requests whose role set
// (injected by RequireAuth) does not carry the given capability tag. Unlike
// a weighted hierarchy, grants here are an unordered set: holding
// RoleEditAccount implies nothing about RoleDeleteAccount.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := GetUserID(r.Context()); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			roles, err := GetRoles(r.Context())
			if err != nil {
				slog.Warn("rbac: roles missing in context", "ip", r.RemoteAddr)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			if !roles.Has(role) {
				slog.Warn("rbac: missing capability", "need", role, "ip", r.RemoteAddr)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
