package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// outright rather than silently truncated.
const maxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrPasswordTooLong is returned when the password exceeds bcrypt's
	// 72-byte input limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// HashPassword produces a bcrypt digest of the password. The digest embeds a
// freshly generated random salt, so hashing the same password twice yields
// different digests.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored digest. The
// comparison is constant-time with respect to the digest content. A
// malformed digest verifies false; it never panics.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
