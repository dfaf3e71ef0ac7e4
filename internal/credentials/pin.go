// Package credentials generates and checks the parent PIN
package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// PINLength is the length of a generated PIN
const PINLength = 4

// ErrPINMismatch is returned when a PIN does not match its hash
var ErrPINMismatch = errors.New("pin does not match")

// GeneratePIN returns a random numeric PIN
func GeneratePIN() (string, error) {
	const digits = "0123456789"
	pin := make([]byte, PINLength)

	for i := range pin {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		pin[i] = digits[num.Int64()]
	}

	return string(pin), nil
}

// HashPIN returns the bcrypt hash of a PIN
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// CheckPIN compares a PIN with its hash
func CheckPIN(hash, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPINMismatch
	}
	return err
}
