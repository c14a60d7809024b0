package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the seat (or queue) a connection currently holds.
type Role uint8

const (
	RoleNone Role = iota
	RoleAdmin
	RoleGuest
	RolePending
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleGuest:
		return "guest"
	case RolePending:
		return "pending"
	case RoleNone:
		return "none"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Seated reports whether the role occupies one of the two seats.
func (r Role) Seated() bool { return r == RoleAdmin || r == RoleGuest }

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole maps wire names to roles. Only the two joinable roles plus the
// informational ones are accepted.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "guest":
		return RoleGuest, nil
	case "pending":
		return RolePending, nil
	case "none", "":
		return RoleNone, nil
	}
	return RoleNone, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}
