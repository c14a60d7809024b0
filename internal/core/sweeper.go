package core

import (
	"fmt"
	"math"
	"time"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInactivity   = 90 * time.Second
	DefaultSessionLimit = 300 * time.Second
	DefaultWarningAt    = 240 * time.Second
)

// SweepPolicy holds the guest timeouts evaluated on every tick.
type SweepPolicy struct {
	Inactivity   time.Duration
	SessionLimit time.Duration
	WarningAt    time.Duration
}

func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{
		Inactivity:   DefaultInactivity,
		SessionLimit: DefaultSessionLimit,
		WarningAt:    DefaultWarningAt,
	}
}

func (p SweepPolicy) withDefaults() SweepPolicy {
	if p.Inactivity <= 0 {
		p.Inactivity = DefaultInactivity
	}
	if p.SessionLimit <= 0 {
		p.SessionLimit = DefaultSessionLimit
	}
	if p.WarningAt <= 0 || p.WarningAt >= p.SessionLimit {
		p.WarningAt = p.SessionLimit * 4 / 5
	}
	return p
}

type SweepOutcome uint8

const (
	SweepNone SweepOutcome = iota
	SweepWarned
	SweepInactive
	SweepExpired
)

func (o SweepOutcome) String() string {
	switch o {
	case SweepWarned:
		return "warned"
	case SweepInactive:
		return domain.ReasonInactive
	case SweepExpired:
		return domain.ReasonSessionExpired
	case SweepNone:
	}
	return "none"
}

// Sweep evaluates the guest seat at now. Inactivity is checked before the
// session length, so a stale guest is always evicted as inactive.
func (c *Coordinator) Sweep(now time.Time) ([]Instruction, SweepOutcome) {
	guest := c.reg.Guest()
	if guest == nil {
		return nil, SweepNone
	}
	p := c.policy

	if now.Sub(guest.LastActivityAt) > p.Inactivity {
		log.Info().Str("module", "core.sweeper").Str("sid", string(guest.ID)).Msg("guest inactive")
		return c.evictGuest(domain.ReasonInactive, "%s was removed due to inactivity", now), SweepInactive
	}
	if guest.SessionStartedAt == nil {
		return nil, SweepNone
	}

	elapsed := now.Sub(*guest.SessionStartedAt)
	switch {
	case elapsed > p.SessionLimit:
		log.Info().Str("module", "core.sweeper").Str("sid", string(guest.ID)).Msg("guest session expired")
		return c.evictGuest(domain.ReasonSessionExpired, "%s's session has ended (time limit reached)", now), SweepExpired
	case elapsed > p.WarningAt && !guest.WarningIssued:
		c.reg.MarkGuestWarned()
		left := int(math.Ceil((p.SessionLimit - elapsed).Seconds()))
		msg := domain.NewSystemMessage(fmt.Sprintf("Your session will end in %d seconds.", left), now)
		var out outbox
		out.unicast(guest.ID, domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
		log.Debug().Str("module", "core.sweeper").Str("sid", string(guest.ID)).Int("left", left).Msg("session warning issued")
		return out, SweepWarned
	}
	return nil, SweepNone
}
