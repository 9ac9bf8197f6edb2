package passkey

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 6
	// MaxLength is the longest input bcrypt accepts, in bytes.
	MaxLength = 72
)

var (
	ErrTooShort = fmt.Errorf("passkey must be at least %d characters long", MinLength)
	ErrTooLong  = fmt.Errorf("passkey must be at most %d bytes long", MaxLength)
	ErrMismatch = errors.New("passkeys don't match")
	ErrInvalid  = errors.New("invalid passkey")
)

// Hash validates a new passkey against its confirmation and returns the
// bcrypt hash to store.
func Hash(passkey, confirm string) (string, error) {
	if len(passkey) < MinLength {
		return "", ErrTooShort
	}
	if len(passkey) > MaxLength {
		return "", ErrTooLong
	}
	if passkey != confirm {
		return "", ErrMismatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(passkey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passkey: %w", err)
	}
	return string(hashed), nil
}

// Verify compares a stored hash with the passkey typed by the user.
func Verify(hash, passkey string) error {
	if hash == "" {
		return ErrInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passkey)); err != nil {
		return ErrInvalid
	}
	return nil
}
