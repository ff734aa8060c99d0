package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
	"github.com/Jeffreasy/mimo-auth/internal/ratelimit"
)

func TestMailSendLimiter_FirstThreeSucceedRestRejected(t *testing.T) {
	limiter := ratelimit.NewMailSendLimiter()

	for i := 0; i < 3; i++ {
		assert.NoError(t, limiter.Charge("a@b.co", "203.0.113.1"))
	}

	err := limiter.Charge("a@b.co", "203.0.113.1")
	require.Error(t, err)
	authErr, ok := auth.As(err)
	require.True(t, ok)
	assert.Equal(t, auth.TooManyRequests, authErr.Kind)
}

func TestMailSendLimiter_DifferentEmailsIndependent(t *testing.T) {
	limiter := ratelimit.NewMailSendLimiter()

	for i := 0; i < 3; i++ {
		assert.NoError(t, limiter.Charge("a@b.co", "203.0.113.1"))
	}
	// A different email, same IP, is still within its own per-email budget
	// but shares the per-IP budget (capacity 5) which still has headroom.
	assert.NoError(t, limiter.Charge("other@b.co", "203.0.113.1"))
}

func TestAuthLimiter_PerUserCapsIndependentlyOfIP(t *testing.T) {
	limiter := ratelimit.NewAuthLimiter()

	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Charge("203.0.113.5", "user-1"))
	}
	err := limiter.Charge("203.0.113.5", "user-1")
	require.Error(t, err)
	authErr, ok := auth.As(err)
	require.True(t, ok)
	assert.Equal(t, auth.TooManyRequests, authErr.Kind)

	// A different user from the same IP still has its own budget.
	assert.NoError(t, limiter.Charge("203.0.113.5", "user-2"))
}

func TestClientIP_PriorityOrder(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	req.Header.Set("X-Real-IP", "192.0.2.2")
	req.Header.Set("CF-Connecting-IP", "192.0.2.1")

	assert.Equal(t, "192.0.2.1", ratelimit.ClientIP(req, ratelimit.DefaultClientIPHeaderPriority))
}

func TestClientIP_FallsBackThroughPriority(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", ratelimit.ClientIP(req, ratelimit.DefaultClientIPHeaderPriority))
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"

	assert.Equal(t, "198.51.100.9", ratelimit.ClientIP(req, ratelimit.DefaultClientIPHeaderPriority))
}
