package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// AuthLimiter guards login and refresh with the quotas from spec.md §4.E.
// The per-user key is the email presented at login (there is no user-id yet
// at that point) or the subject carried by a refresh credential.
type AuthLimiter struct {
	perIP   *KeyedLimiter
	perUser *KeyedLimiter
}

// NewAuthLimiter constructs the authentication limiter family: 30 tokens per
// hour per IP, 5 tokens per minute per user.
func NewAuthLimiter() *AuthLimiter {
	return &AuthLimiter{
		perIP:   NewKeyedLimiter(Quota{Capacity: 30, Limit: rate.Every(time.Hour / 30)}),
		perUser: NewKeyedLimiter(Quota{Capacity: 5, Limit: rate.Every(time.Minute / 5)}),
	}
}

// Charge consumes one token from both buckets; a request must pass both to
// proceed.
func (l *AuthLimiter) Charge(ip, user string) error {
	if !l.perIP.Allow(ip) {
		return auth.New(auth.TooManyRequests, "too many authentication attempts from this address; please try again later")
	}
	if !l.perUser.Allow(user) {
		return auth.New(auth.TooManyRequests, "too many authentication attempts for this account; please try again later")
	}
	return nil
}
