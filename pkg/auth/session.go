package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kind discriminants. Every token carries exactly one, and each
// codec rejects tokens stamped with the other kind.
const (
	tokenKindSession = "session"
	tokenKindPurpose = "purpose"
)

// DefaultSessionTTL is the session validity window when none is configured.
const DefaultSessionTTL = time.Hour

// sessionClaims is the session token claim set: principal, kind, expiry.
type sessionClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"knd"`
}

// SessionCodec issues and verifies signed, time-bounded session tokens.
// Tokens are self-contained HS256 JWTs; validity is determined purely by
// signature and expiry, with no server-side session state.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionCodec creates a session codec over the given signing secret.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionCodec(secret []byte, ttl time.Duration) *SessionCodec {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCodec{secret: secret, ttl: ttl}
}

// TTL returns the configured session validity window.
func (c *SessionCodec) TTL() time.Duration { return c.ttl }

// Issue builds a signed assertion of {principal, expiry} valid from now
// for the configured TTL.
func (c *SessionCodec) Issue(principal int64, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Kind: tokenKindSession,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry against now and returns
// the embedded principal. The signature is checked before any claim is
// inspected; the failure kinds are distinguishable: KindMalformed for
// undecodable or wrongly shaped tokens, KindSignatureInvalid for signature
// mismatches, KindExpired for elapsed tokens.
func (c *SessionCodec) Verify(token string, now time.Time) (int64, *Error) {
	claims := &sessionClaims{}
	parsed, err := newParser(now).ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		return 0, classifyParseError(err)
	}
	if !parsed.Valid || claims.Kind != tokenKindSession {
		return 0, errUndecodable()
	}

	principal, convErr := strconv.ParseInt(claims.Subject, 10, 64)
	if convErr != nil || principal <= 0 {
		return 0, errUndecodable()
	}
	return principal, nil
}

func (c *SessionCodec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}

// newParser builds a parser pinned to HS256 that evaluates expiry against
// the caller-supplied instant instead of the wall clock.
func newParser(now time.Time) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
}

// classifyParseError maps jwt parse failures onto the auth error taxonomy.
// The parser verifies the signature before validating claims, so a token
// that is both tampered and expired reports the signature failure.
func classifyParseError(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errUndecodable()
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errBadSignature()
	case errors.Is(err, jwt.ErrTokenExpired):
		return errExpired()
	default:
		return errUndecodable()
	}
}
