package httpx

import (
	"context"

	domainauth "github.com/target/petalcart/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type principalKey struct{}

type guestIDKey struct{}

// SetPrincipalInContext returns a child context that carries the given principal.
// If principal is nil, the original ctx is returned unchanged.
func SetPrincipalInContext(ctx context.Context, principal *domainauth.Principal) context.Context {
	if principal == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the request principal, or the anonymous principal when
// authentication middleware did not run.
func PrincipalFromContext(ctx context.Context) *domainauth.Principal {
	if p, ok := ctx.Value(principalKey{}).(*domainauth.Principal); ok && p != nil {
		return p
	}
	return domainauth.Anonymous()
}

// SetGuestIDInContext stores the visitor id carried by the guest cookie.
func SetGuestIDInContext(ctx context.Context, guestID string) context.Context {
	if guestID == "" {
		return ctx
	}
	return context.WithValue(ctx, guestIDKey{}, guestID)
}

// GuestIDFromContext returns the visitor id, or "" when none was assigned.
func GuestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(guestIDKey{}).(string)
	return id
}
