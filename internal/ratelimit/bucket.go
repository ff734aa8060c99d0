// Package ratelimit implements the keyed token-bucket quotas guarding
// mail-send and authentication endpoints.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Quota describes one bucket family's capacity and refill rate.
type Quota struct {
	Capacity int
	Limit    rate.Limit
}

// KeyedLimiter holds one token-bucket limiter per key (email, IP, or
// user-id), generalizing the teacher's sync.Map-of-*rate.Limiter
// IPRateLimiter into a reusable type shared by every bucket family, matching
// the original prototype's per-family keyed governor limiters.
type KeyedLimiter struct {
	buckets sync.Map // string -> *rate.Limiter
	quota   Quota
}

// NewKeyedLimiter constructs a limiter family at the given quota.
func NewKeyedLimiter(quota Quota) *KeyedLimiter {
	return &KeyedLimiter{quota: quota}
}

func (k *KeyedLimiter) limiterFor(key string) *rate.Limiter {
	if v, ok := k.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(k.quota.Limit, k.quota.Capacity)
	actual, _ := k.buckets.LoadOrStore(key, fresh)
	return actual.(*rate.Limiter)
}

// Allow consumes one token from key's bucket, returning false if the bucket
// is empty.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.limiterFor(key).Allow()
}
