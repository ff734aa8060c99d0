package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer and Audience are constant across every credential the service
// issues; there is no per-tenant variation (see SPEC_FULL.md Non-goals).
const (
	Issuer   = "mimo-server"
	Audience = "mimo-client"
)

// Codec issues and verifies bearer credentials. It holds the single shared
// HMAC secret; there is no key rotation or kid lookup (see DESIGN.md).
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec around a shared secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue mints a new signed credential for the given subject and purpose.
// subject is a user_id for Refresh/Access, or an email address for
// Registration/PasswordReset. roles is only meaningful for Purpose Access
// and is ignored otherwise.
func (c *Codec) Issue(purpose Purpose, subject string, roles RoleSet) (string, error) {
	if !purpose.valid() {
		return "", New(Internal, "auth: unknown credential purpose")
	}

	now := time.Now()
	jti := uuid.NewString()

	claims := ClaimBundle{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(purpose.ttl())),
			ID:        jti,
		},
		Purpose: purpose,
	}
	if purpose == PurposeAccess {
		claims.Roles = roles
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Wrap(Internal, "auth: signing credential", err)
	}
	return signed, nil
}

// Decode parses and verifies a credential's signature, expiry, and issuer,
// and checks that its purpose matches want. It does NOT consult the
// revocation index — callers that need the read-your-write revocation
// guarantee must check that separately (see Service.Authenticate).
func (c *Codec) Decode(raw string, want Purpose) (*ClaimBundle, error) {
	claims := &ClaimBundle{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithAudience(Audience), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, Wrap(Unauthenticated, "auth: invalid or expired credential", err)
	}
	if !claims.Purpose.valid() {
		return nil, New(Unauthenticated, "auth: credential has unknown purpose")
	}
	if claims.Purpose != want {
		return nil, New(Unauthenticated, "auth: credential purpose mismatch")
	}
	return claims, nil
}
