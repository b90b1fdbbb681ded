// Package authutil provides password validation and hashing.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum allowed password length.
	MinPasswordLength = 6
	// MaxPasswordLength caps input to bcrypt's effective limit.
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords are rejected regardless of length. Matched
// case-insensitively.
var commonPasswords = map[string]struct{}{
	"123456":    {},
	"password":  {},
	"qwerty":    {},
	"abc123":    {},
	"iloveyou":  {},
	"letmein":   {},
	"football":  {},
	"welcome":   {},
	"monkey":    {},
	"dragon":    {},
	"sunshine":  {},
	"princess":  {},
	"trustno1":  {},
	"baseball":  {},
	"superman":  {},
	"1234567":   {},
	"12345678":  {},
	"123456789": {},
}

// ValidatePassword checks a candidate password against the length and
// common-password rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
