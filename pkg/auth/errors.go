package auth

import "net/http"

// ErrorKind enumerates the distinguishable authentication and authorization
// failures. The first five arise while establishing identity (401-class);
// the mismatch kinds arise while authorizing a specific action (403-class).
type ErrorKind int

const (
	// KindMissing: no credential was presented at all.
	KindMissing ErrorKind = iota

	// KindMalformed: the credential is present but not decodable, has the
	// wrong structure, or carries the wrong kind discriminant.
	KindMalformed

	// KindSignatureInvalid: the credential decodes but its signature does
	// not verify under the signing secret.
	KindSignatureInvalid

	// KindExpired: signature verifies but the expiry has elapsed.
	KindExpired

	// KindIdentityMismatch: the purpose token's principal is not the
	// session principal presenting it.
	KindIdentityMismatch

	// KindTargetMismatch: the purpose token targets a different resource.
	KindTargetMismatch

	// KindPurposeMismatch: the purpose token authorizes a different action.
	KindPurposeMismatch
)

// Stable client-facing messages for the gate's 401 responses.
const (
	msgMissing      = "Token is missing!"
	msgBadFormat    = "Token is in incorrect format!"
	msgExpired      = "Token has expired!"
	msgBadSignature = "Token is invalid!"
	msgUndecodable  = "Token could not be decoded!"
)

// Error is the result-type error for every auth failure path. It carries a
// stable, client-safe message; internal decode detail stays in the logs.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Status maps the error kind to its HTTP status: mismatches are forbidden,
// everything else is unauthenticated.
func (e *Error) Status() int {
	switch e.Kind {
	case KindIdentityMismatch, KindTargetMismatch, KindPurposeMismatch:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func errMissing() *Error {
	return &Error{Kind: KindMissing, Message: msgMissing}
}

// errBadHeader covers Authorization headers that do not split into exactly
// "Bearer <value>": a bare scheme, a wrong scheme, or extra parts.
func errBadHeader() *Error {
	return &Error{Kind: KindMalformed, Message: msgBadFormat}
}

// errUndecodable covers token strings that fail structural decoding,
// including tokens whose kind discriminant names the other token kind.
func errUndecodable() *Error {
	return &Error{Kind: KindMalformed, Message: msgUndecodable}
}

func errBadSignature() *Error {
	return &Error{Kind: KindSignatureInvalid, Message: msgBadSignature}
}

func errExpired() *Error {
	return &Error{Kind: KindExpired, Message: msgExpired}
}

func errIdentityMismatch() *Error {
	return &Error{Kind: KindIdentityMismatch, Message: "Token does not belong to this user"}
}

func errTargetMismatch() *Error {
	return &Error{Kind: KindTargetMismatch, Message: "Token is not valid for this post"}
}

func errPurposeMismatch() *Error {
	return &Error{Kind: KindPurposeMismatch, Message: "Token is not valid for this action"}
}
