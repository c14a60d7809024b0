package core

import (
	"fmt"
	"time"

	"github.com/dkeye/Duet/internal/domain"
)

const (
	errInvalidPassword = "Invalid admin password"
	errAlreadyJoined   = "already joined"
	errWaitingListFull = "waiting list is full"
)

// JoinAdmin seats the caller as admin. A previous admin is evicted with reason "replaced".
func (c *Coordinator) JoinAdmin(caller domain.Identity, password string, now time.Time) []Instruction {
	var out outbox
	if c.reg.RoleOf(caller.ID) != domain.RoleNone {
		out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{Error: errAlreadyJoined})
		return out
	}
	res := c.reg.AdmitAdmin(caller, password, now)
	if !res.Accepted {
		out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{Error: errInvalidPassword})
		return out
	}

	out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{
		Success: true,
		Role:    domain.RoleAdmin,
		Room:    c.snapshotPtr(),
	})
	out.others(caller.ID, domain.EventOccupantJoined, domain.OccupantJoinedPayload{
		Occupant: *res.Admin,
		Role:     domain.RoleAdmin,
	})
	if prev := res.Replaced; prev != nil {
		out.unicast(prev.ID, domain.EventKicked, domain.KickedPayload{Reason: domain.ReasonReplaced})
		out.broadcast(domain.EventOccupantLeft, domain.OccupantLeftPayload{OccupantID: prev.ID, Role: domain.RoleAdmin})
	}
	if n := c.reg.PendingCount(); n > 0 {
		c.announce(&out, fmt.Sprintf("Admin joined. %d guest request(s) waiting for approval.", n), now)
	}
	return out
}

// JoinGuest queues the caller. Admission always goes through the admin.
func (c *Coordinator) JoinGuest(caller domain.Identity, now time.Time) []Instruction {
	var out outbox
	entry, outcome := c.reg.EnqueueGuest(caller, now)
	switch outcome {
	case EnqueueAlreadyJoined:
		out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{Error: errAlreadyJoined})
		return out
	case EnqueueQueueFull:
		out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{Error: errWaitingListFull})
		return out
	case EnqueueQueued:
	}

	out.unicast(caller.ID, domain.EventJoined, domain.JoinedPayload{
		Success: true,
		Role:    domain.RolePending,
		Room:    c.snapshotPtr(),
	})
	out.others(caller.ID, domain.EventGuestRequested, domain.GuestRequestedPayload{Entry: entry})
	c.pendingCount(&out)
	return out
}

// Approve seats a pending guest. Only the current admin may call it.
func (c *Coordinator) Approve(callerID, pendingID domain.UserID, now time.Time) []Instruction {
	if !c.isAdmin(callerID) {
		return nil
	}
	var out outbox
	guest, entry, outcome := c.reg.Approve(pendingID, now)
	switch outcome {
	case ApproveNotFound:
		return nil
	case ApproveSeatTaken:
		current := c.reg.Guest()
		c.notice(&out, fmt.Sprintf("Cannot approve %s: %s is still in the chat. Kick the current guest first.",
			entry.Name, current.Name), now)
		return out
	case ApproveSeated:
	}

	out.unicast(guest.ID, domain.EventApproved, domain.ApprovedPayload{Name: guest.Name})
	out.broadcast(domain.EventOccupantJoined, domain.OccupantJoinedPayload{Occupant: *guest, Role: domain.RoleGuest})
	c.announce(&out, fmt.Sprintf("%s has been approved to join the chat", guest.Name), now)
	c.pendingCount(&out)
	return out
}

// Reject drops a pending request. Only the current admin may call it.
func (c *Coordinator) Reject(callerID, pendingID domain.UserID, now time.Time) []Instruction {
	if !c.isAdmin(callerID) {
		return nil
	}
	entry, ok := c.reg.Reject(pendingID)
	if !ok {
		return nil
	}
	var out outbox
	out.unicast(entry.ID, domain.EventRejected, domain.RejectedPayload{})
	c.announce(&out, fmt.Sprintf("%s's request has been rejected", entry.Name), now)
	c.pendingCount(&out)
	return out
}

// Kick evicts the current guest. Kicking an empty seat produces nothing.
func (c *Coordinator) Kick(callerID domain.UserID, now time.Time) []Instruction {
	if !c.isAdmin(callerID) {
		return nil
	}
	return c.evictGuest(domain.ReasonAdmin, "%s has been kicked from the chat", now)
}

func (c *Coordinator) evictGuest(reason, format string, now time.Time) []Instruction {
	evicted := c.reg.KickGuest()
	if evicted == nil {
		return nil
	}
	var out outbox
	out.unicast(evicted.ID, domain.EventKicked, domain.KickedPayload{Reason: reason})
	out.broadcast(domain.EventOccupantLeft, domain.OccupantLeftPayload{OccupantID: evicted.ID, Role: domain.RoleGuest})
	c.announce(&out, fmt.Sprintf(format, evicted.Name), now)
	return out
}

// Cancel withdraws the caller's own pending request.
func (c *Coordinator) Cancel(callerID domain.UserID, now time.Time) []Instruction {
	if c.reg.RoleOf(callerID) != domain.RolePending {
		return nil
	}
	removed := c.reg.RemoveOccupant(callerID)
	var out outbox
	out.broadcast(domain.EventOccupantLeft, domain.OccupantLeftPayload{OccupantID: callerID, Role: domain.RolePending})
	c.announce(&out, fmt.Sprintf("%s cancelled their request to join", removed.Name), now)
	c.pendingCount(&out)
	return out
}

// Leave is a voluntary exit that keeps the connection open.
func (c *Coordinator) Leave(callerID domain.UserID, now time.Time) []Instruction {
	switch c.reg.RoleOf(callerID) {
	case domain.RolePending:
		return c.Cancel(callerID, now)
	case domain.RoleAdmin, domain.RoleGuest:
		out := outbox(c.Disconnect(callerID, now))
		out.unicast(callerID, domain.EventLeft, domain.LeftPayload{})
		return out
	case domain.RoleNone:
	}
	return nil
}

// Disconnect clears whatever the caller held. A pending caller leaves quietly:
// only counters are refreshed, no system message is written.
func (c *Coordinator) Disconnect(callerID domain.UserID, now time.Time) []Instruction {
	removed := c.reg.RemoveOccupant(callerID)
	var out outbox
	switch removed.Role {
	case domain.RoleAdmin:
		out.broadcast(domain.EventOccupantLeft, domain.OccupantLeftPayload{OccupantID: callerID, Role: domain.RoleAdmin})
		c.announce(&out, "Admin has left the chat. New admin can join.", now)
	case domain.RoleGuest:
		out.broadcast(domain.EventOccupantLeft, domain.OccupantLeftPayload{OccupantID: callerID, Role: domain.RoleGuest})
	case domain.RolePending:
		c.pendingCount(&out)
		c.activity(&out)
	case domain.RoleNone:
		return nil
	}
	return out
}
