package orch

import (
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) JoinAdmin(id domain.Identity, password string) {
	log.Info().Str("module", "orch").Str("sid", string(id.ID)).Str("role", "admin").Msg("join")
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.JoinAdmin(id, password, now)
	})
}

func (o *Orchestrator) JoinGuest(id domain.Identity) {
	log.Info().Str("module", "orch").Str("sid", string(id.ID)).Str("role", "guest").Msg("join")
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.JoinGuest(id, now)
	})
}

func (o *Orchestrator) Approve(sid, pendingID domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Approve(sid, pendingID, now)
	})
}

func (o *Orchestrator) Reject(sid, pendingID domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Reject(sid, pendingID, now)
	})
}

func (o *Orchestrator) Kick(sid domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Kick(sid, now)
	})
}

func (o *Orchestrator) Cancel(sid domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Cancel(sid, now)
	})
}

// Leave vacates the caller's seat or request; the connection stays open.
func (o *Orchestrator) Leave(sid domain.UserID) {
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("leave")
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Leave(sid, now)
	})
}

// Disconnect is called once the transport is gone.
func (o *Orchestrator) Disconnect(sid domain.UserID) {
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnect")
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Disconnect(sid, now)
	})
}

func (o *Orchestrator) SendMessage(sid domain.UserID, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.clock()
	ins, posted := o.coord.SendMessage(sid, body, now)
	o.deliver(ins)
	if posted != nil && posted.Session != nil {
		o.scheduleReply(posted.Message, *posted.Session)
	}
}

func (o *Orchestrator) TypingStart(sid domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.TypingStart(sid, now)
	})
}

func (o *Orchestrator) TypingStop(sid domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.TypingStop(sid, now)
	})
}

func (o *Orchestrator) Ping(sid domain.UserID) {
	o.apply(func(now time.Time) []core.Instruction {
		return o.coord.Ping(sid, now)
	})
}

func (o *Orchestrator) RoomState(sid domain.UserID) {
	o.apply(func(time.Time) []core.Instruction {
		return o.coord.RoomState(sid)
	})
}

// Notify sends a transport-level notice to one connection, bypassing the room.
func (o *Orchestrator) Notify(sid domain.UserID, ev domain.EventName, payload any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deliver([]core.Instruction{{To: core.Unicast(sid), Event: ev, Payload: payload}})
}
