package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := auth.NewCodec("test-secret")

	raw, err := codec.Issue(auth.PurposeAccess, "user-1", auth.DefaultRoles)
	require.NoError(t, err)

	claims, err := codec.Decode(raw, auth.PurposeAccess)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, auth.PurposeAccess, claims.Purpose)
	assert.True(t, claims.GetRoles().Has(auth.RoleEditMemo))
	assert.False(t, claims.GetRoles().Has(auth.RoleDeleteAccount))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestCodec_RefreshHasNoRoles(t *testing.T) {
	codec := auth.NewCodec("test-secret")

	raw, err := codec.Issue(auth.PurposeRefresh, "user-1", nil)
	require.NoError(t, err)

	claims, err := codec.Decode(raw, auth.PurposeRefresh)
	require.NoError(t, err)
	assert.Empty(t, claims.GetRoles())
}

func TestCodec_PurposeMismatchRejected(t *testing.T) {
	codec := auth.NewCodec("test-secret")

	raw, err := codec.Issue(auth.PurposeRegistration, "a@b.co", nil)
	require.NoError(t, err)

	_, err = codec.Decode(raw, auth.PurposeAccess)
	require.Error(t, err)
	authErr, ok := auth.As(err)
	require.True(t, ok)
	assert.Equal(t, auth.Unauthenticated, authErr.Kind)
}

func TestCodec_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewCodec("secret-a")
	verifier := auth.NewCodec("secret-b")

	raw, err := issuer.Issue(auth.PurposeAccess, "user-1", auth.DefaultRoles)
	require.NoError(t, err)

	_, err = verifier.Decode(raw, auth.PurposeAccess)
	require.Error(t, err)
}

func TestCodec_TTLTable(t *testing.T) {
	codec := auth.NewCodec("test-secret")
	cases := []struct {
		purpose auth.Purpose
		subject string
		ttl     time.Duration
	}{
		{auth.PurposeRefresh, "user-1", 7 * 24 * time.Hour},
		{auth.PurposeAccess, "user-1", time.Hour},
		{auth.PurposeRegistration, "a@b.co", 15 * time.Minute},
		{auth.PurposePasswordReset, "a@b.co", 30 * time.Minute},
	}
	for _, tc := range cases {
		raw, err := codec.Issue(tc.purpose, tc.subject, nil)
		require.NoError(t, err)
		claims, err := codec.Decode(raw, tc.purpose)
		require.NoError(t, err)
		assert.WithinDuration(t, claims.IssuedAt.Time.Add(tc.ttl), claims.ExpiresAt.Time, time.Second)
	}
}
