package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// MailSendLimiter guards code-emission endpoints (start-registration,
// start-password-reset) with the quotas from spec.md §4.E.
type MailSendLimiter struct {
	perEmail *KeyedLimiter
	perIP    *KeyedLimiter
}

// NewMailSendLimiter constructs the mail-send limiter family: 3 tokens per
// 15 minutes per email, 5 tokens per hour per IP.
func NewMailSendLimiter() *MailSendLimiter {
	return &MailSendLimiter{
		perEmail: NewKeyedLimiter(Quota{Capacity: 3, Limit: rate.Every(15 * time.Minute / 3)}),
		perIP:    NewKeyedLimiter(Quota{Capacity: 5, Limit: rate.Every(time.Hour / 5)}),
	}
}

// Charge consumes one token from both the per-email and per-IP buckets. It
// returns a TooManyRequests *auth.Error naming whichever bucket rejected
// first; a request must pass both to proceed.
func (l *MailSendLimiter) Charge(email, ip string) error {
	if !l.perEmail.Allow(email) {
		return auth.New(auth.TooManyRequests, "too many verification codes requested for this email; please try again later")
	}
	if !l.perIP.Allow(ip) {
		return auth.New(auth.TooManyRequests, "too many verification codes requested from this address; please try again later")
	}
	return nil
}
