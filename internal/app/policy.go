package app

import (
	"fmt"

	"github.com/dkeye/Duet/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a client whose send buffer is full.
type Policy interface {
	OnBackPressure(sid domain.UserID) BackpressureAction
}

// SimplePolicy disconnects slow clients.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.UserID) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the client.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(domain.UserID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the limits.backpressure setting to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return LenientPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
