package core

import (
	"time"

	"github.com/dkeye/Duet/internal/domain"
)

// Coordinator validates client intents against the Registry and returns the
// exact set of events each operation produces. It never performs I/O.
type Coordinator struct {
	reg    *Registry
	policy SweepPolicy
}

func NewCoordinator(reg *Registry, policy SweepPolicy) *Coordinator {
	return &Coordinator{reg: reg, policy: policy.withDefaults()}
}

// Registry exposes the underlying room for read-only callers (snapshots, metrics).
func (c *Coordinator) Registry() *Registry { return c.reg }

func (c *Coordinator) Policy() SweepPolicy { return c.policy }

// outbox accumulates instructions in emission order.
type outbox []Instruction

func (o *outbox) unicast(id domain.UserID, ev domain.EventName, payload any) {
	*o = append(*o, Instruction{To: Unicast(id), Event: ev, Payload: payload})
}

func (o *outbox) broadcast(ev domain.EventName, payload any) {
	*o = append(*o, Instruction{To: Broadcast(), Event: ev, Payload: payload})
}

func (o *outbox) others(id domain.UserID, ev domain.EventName, payload any) {
	*o = append(*o, Instruction{To: BroadcastExcept(id), Event: ev, Payload: payload})
}

// announce records a system message in history and broadcasts it.
func (c *Coordinator) announce(out *outbox, body string, now time.Time) {
	msg := domain.NewSystemMessage(body, now)
	c.reg.AppendMessage(msg)
	out.broadcast(domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
}

// notice broadcasts a system message without recording it.
func (c *Coordinator) notice(out *outbox, body string, now time.Time) {
	msg := domain.NewSystemMessage(body, now)
	out.broadcast(domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
}

func (c *Coordinator) pendingCount(out *outbox) {
	out.broadcast(domain.EventPendingCountChanged, domain.PendingCountPayload{Count: c.reg.PendingCount()})
}

func (c *Coordinator) activity(out *outbox) {
	out.broadcast(domain.EventActivityUpdated, domain.ActivityUpdatedPayload{Room: c.reg.Snapshot()})
}

func (c *Coordinator) isAdmin(id domain.UserID) bool {
	return c.reg.RoleOf(id) == domain.RoleAdmin
}

func (c *Coordinator) snapshotPtr() *domain.RoomSnapshot {
	s := c.reg.Snapshot()
	return &s
}
