package auth

import "context"

// principalKey is a private type for the principal context key.
type principalKey struct{}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, principal int64) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated principal. The second
// return is false if the request did not pass the auth gate.
func PrincipalFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(principalKey{}).(int64)
	return v, ok
}
