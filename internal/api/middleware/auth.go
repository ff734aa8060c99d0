package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// authenticator is the subset of the Authentication Service the middleware
// needs: decode and validate an access credential.
type authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.ClaimBundle, error)
}

// RequireAuth reads the access_token cookie, validates it against svc, and
// injects the resolved user id and role set into the request context.
func RequireAuth(svc authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("access_token")
			if err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := svc.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				slog.Warn("invalid access token", "error", err, "ip", r.RemoteAddr)
				status := http.StatusUnauthorized
				if authErr, ok := auth.As(err); ok {
					status = authErr.StatusCode()
				}
				http.Error(w, "invalid or expired session", status)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, RolesKey, claims.GetRoles())
			SetSentryUser(ctx, claims.Subject, r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
