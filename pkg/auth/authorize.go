package auth

import "time"

// Authorizer is the gate in front of privileged writes. It consumes a
// purpose token plus the ambient session principal and cross-validates
// identity, resource target, and purpose before the caller may mutate
// anything. It is a pure function over its inputs; it never touches storage.
type Authorizer struct {
	codec *PurposeCodec
}

// NewAuthorizer creates an Authorizer over the given purpose codec.
func NewAuthorizer(codec *PurposeCodec) *Authorizer {
	return &Authorizer{codec: codec}
}

// Authorize runs the four required checks, short-circuiting on the first
// failure:
//
//  1. token signature and expiry (propagated unchanged from the codec)
//  2. token principal equals the session principal
//  3. token target equals the declared target
//  4. token purpose equals the declared purpose
//
// Each failing check yields its specific error kind, never a generic one.
func (a *Authorizer) Authorize(sessionPrincipal int64, token string, target int64, purpose string, now time.Time) *Error {
	claims, err := a.codec.Verify(token, now)
	if err != nil {
		return err
	}
	if claims.Principal != sessionPrincipal {
		return errIdentityMismatch()
	}
	if claims.Target != target {
		return errTargetMismatch()
	}
	if claims.Purpose != purpose {
		return errPurposeMismatch()
	}
	return nil
}
