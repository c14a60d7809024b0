package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/Duet/internal/core"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyHash = errors.New("empty password hash")

// BcryptChecker verifies the admin secret against a bcrypt hash.
type BcryptChecker struct {
	hash []byte
}

// NewPasswordChecker hashes plain once. An empty secret disables the check
// and returns a nil checker, which the room treats as "any admin accepted".
func NewPasswordChecker(plain string, cost int) (core.PasswordChecker, error) {
	if plain == "" {
		return nil, nil
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &BcryptChecker{hash: hash}, nil
}

// NewHashChecker wraps an existing bcrypt hash.
func NewHashChecker(hash string) (*BcryptChecker, error) {
	if hash == "" {
		return nil, ErrEmptyHash
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse admin password hash: %w", err)
	}
	return &BcryptChecker{hash: []byte(hash)}, nil
}

func (c *BcryptChecker) Verify(supplied string) bool {
	return bcrypt.CompareHashAndPassword(c.hash, []byte(supplied)) == nil
}
