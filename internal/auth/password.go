package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinBCryptCost is the lowest work factor the hasher accepts.
const MinBCryptCost = 10

var (
	ErrHashing      = errors.New("password hashing failed")
	ErrVerification = errors.New("stored password hash is malformed")
)

// Hasher is a bcrypt PasswordHasher. bcrypt salts every hash on its own.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost < MinBCryptCost {
		cost = MinBCryptCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hash), nil
}

// Verify compares in constant time. A wrong password is (false, nil); only a
// hash that cannot be parsed yields an error.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
}
