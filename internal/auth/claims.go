package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose names the reason a credential was issued: exactly one of these
// four values. Issue and Decode in codec.go reject any other value via
// valid(); the Go compiler itself does not check that a switch over Purpose
// covers every case.
type Purpose string

const (
	PurposeRefresh      Purpose = "refresh"
	PurposeAccess       Purpose = "access"
	PurposeRegistration Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// ttl returns the lifetime the spec assigns to each purpose.
func (p Purpose) ttl() time.Duration {
	switch p {
	case PurposeRefresh:
		return 7 * 24 * time.Hour
	case PurposeAccess:
		return time.Hour
	case PurposeRegistration:
		return 15 * time.Minute
	case PurposePasswordReset:
		return 30 * time.Minute
	default:
		return 0
	}
}

// valid reports whether p is one of the four known purposes.
func (p Purpose) valid() bool {
	switch p {
	case PurposeRefresh, PurposeAccess, PurposeRegistration, PurposePasswordReset:
		return true
	default:
		return false
	}
}

// ClaimBundle is the decoded content of a credential. Subject holds the
// user_id for Refresh/Access credentials and the email address for
// Registration/PasswordReset credentials, matching the original prototype's
// JwtClaim.sub usage.
type ClaimBundle struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"typ"`
	Roles   RoleSet `json:"roles,omitempty"`
}

// GetRoles returns the role set carried by an Access credential, empty for
// any other purpose.
func (c ClaimBundle) GetRoles() RoleSet {
	if c.Roles == nil {
		return RoleSet{}
	}
	return c.Roles
}
