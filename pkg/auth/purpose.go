package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultPurposeTTL bounds how long a minted purpose token stays usable.
const DefaultPurposeTTL = 15 * time.Minute

// PurposeItemVote is the purpose tag for casting a final vote on a vote item.
const PurposeItemVote = "item_vote"

// PurposeClaims is the verified claim set of a purpose token. Callers must
// cross-check Target and Purpose themselves (or use Authorizer, which does).
type PurposeClaims struct {
	Principal int64
	Target    int64
	Purpose   string
}

// purposeClaims is the wire shape. Purpose and target are token-intrinsic
// claims, not caller-supplied ones, so a client cannot forge a purpose by
// relabeling a session token.
type purposeClaims struct {
	jwt.RegisteredClaims
	Kind    string `json:"knd"`
	Target  int64  `json:"tgt"`
	Purpose string `json:"pur"`
}

// PurposeCodec issues and verifies signed, time-bounded, narrowly scoped
// action tokens: "this principal may perform exactly this action on exactly
// this resource". It shares the signing secret with the session codec but
// keeps a distinct claim shape and kind discriminant.
type PurposeCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewPurposeCodec creates a purpose codec over the given signing secret.
// A non-positive ttl falls back to DefaultPurposeTTL.
func NewPurposeCodec(secret []byte, ttl time.Duration) *PurposeCodec {
	if ttl <= 0 {
		ttl = DefaultPurposeTTL
	}
	return &PurposeCodec{secret: secret, ttl: ttl}
}

// Issue builds a signed assertion of {principal, target, purpose, expiry}.
func (c *PurposeCodec) Issue(principal, target int64, purpose string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, purposeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Kind:    tokenKindPurpose,
		Target:  target,
		Purpose: purpose,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing purpose token: %w", err)
	}
	return signed, nil
}

// Verify checks signature then expiry against now and returns the full
// claim set. Failure kinds mirror SessionCodec.Verify. A session token
// presented here fails with KindMalformed on the kind discriminant.
func (c *PurposeCodec) Verify(token string, now time.Time) (*PurposeClaims, *Error) {
	claims := &purposeClaims{}
	parsed, err := newParser(now).ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid || claims.Kind != tokenKindPurpose {
		return nil, errUndecodable()
	}

	principal, convErr := strconv.ParseInt(claims.Subject, 10, 64)
	if convErr != nil || principal <= 0 {
		return nil, errUndecodable()
	}
	if claims.Target <= 0 || claims.Purpose == "" {
		return nil, errUndecodable()
	}

	return &PurposeClaims{
		Principal: principal,
		Target:    claims.Target,
		Purpose:   claims.Purpose,
	}, nil
}

func (c *PurposeCodec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}
