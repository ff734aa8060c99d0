// Package mailtransport delivers verification-code messages. Delivery is
// best-effort from the core's perspective; a failure surfaces as an
// ExternalServiceError without rolling back the verification-store
// insertion.
package mailtransport

import "context"

// Transport is the contract the Authentication Service consumes for
// outbound mail. It has exactly the two operations the spec names — there
// is no generic "send arbitrary email" escape hatch.
type Transport interface {
	SendVerification(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, code string) error
}
