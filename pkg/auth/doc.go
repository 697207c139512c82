// Package auth implements the credential and token layer: bcrypt password
// hashing, signed session tokens, purpose-scoped action tokens, the HTTP
// auth gate, and the action authorizer that cross-checks a purpose token
// against the ambient session principal.
//
// All verification is pure computation over the token bytes, the injected
// clock, and an immutable signing secret captured at construction. There is
// no server-side session state and no ambient global key material, so every
// operation is safe for unsynchronized concurrent use.
//
// Failures are reported as *Error values with a distinguishable Kind, never
// as panics: the caller inspects the kind and maps it to a response. The two
// token kinds carry a mandatory "knd" discriminant claim so a session token
// can never be replayed where a purpose token is expected, or vice versa.
package auth
