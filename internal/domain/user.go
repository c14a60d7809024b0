// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID is the stable identifier of one client connection.
type UserID string

// NewUserID allocates an identifier for a freshly accepted connection.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// Identity is who a connection claims to be when it joins.
type Identity struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id UserID, name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return Identity{}, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	return Identity{ID: id, Name: name}, nil
}
