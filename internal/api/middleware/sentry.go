package middleware

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// SetSentryUser attaches the authenticated user's id and IP to the Sentry
// scope so error reports carry request attribution.
func SetSentryUser(ctx context.Context, userID string, ip string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: userID, IPAddress: ip})
	})
}
