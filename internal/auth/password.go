package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher clamps cost into bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.DefaultCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash.
func (h *Hasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AnswerMatches compares secret answers ignoring case and surrounding whitespace.
func AnswerMatches(stored, submitted string) bool {
	a := strings.ToLower(strings.TrimSpace(stored))
	b := strings.ToLower(strings.TrimSpace(submitted))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
