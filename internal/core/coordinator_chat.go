package core

import (
	"strings"
	"time"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/samber/lo"
)

// Posted describes a chat message accepted by SendMessage. Session is set
// only when the author holds the guest seat.
type Posted struct {
	Message domain.Message
	Role    domain.Role
	Session *GuestSession
}

// GuestSession identifies one seating of a guest. A guest who is kicked and
// approved again under the same id starts a new session.
type GuestSession struct {
	GuestID   domain.UserID
	StartedAt time.Time
}

// CurrentGuestSession returns the session of the seated guest, if any.
func (c *Coordinator) CurrentGuestSession() (GuestSession, bool) {
	g := c.reg.Guest()
	if g == nil || g.SessionStartedAt == nil {
		return GuestSession{}, false
	}
	return GuestSession{GuestID: g.ID, StartedAt: *g.SessionStartedAt}, true
}

// SessionTranscript returns the chat messages written since the session
// started, oldest first, keeping at most limit of them (0 means all).
func (c *Coordinator) SessionTranscript(s GuestSession, limit int) []domain.Message {
	chat := lo.Filter(c.reg.Messages(), func(m domain.Message, _ int) bool {
		return m.Kind == domain.KindChat && !m.CreatedAt.Before(s.StartedAt)
	})
	if limit > 0 && len(chat) > limit {
		chat = chat[len(chat)-limit:]
	}
	return chat
}

// SendMessage appends a chat message from a seated occupant. Pending and unknown
// callers are gated out without touching the room.
func (c *Coordinator) SendMessage(callerID domain.UserID, body string, now time.Time) ([]Instruction, *Posted) {
	author := c.reg.Occupant(callerID)
	if author == nil {
		return nil, nil
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	c.reg.TouchActivity(callerID, now)
	msg := domain.NewChatMessage(domain.Identity{ID: author.ID, Name: author.Name}, body, now)
	c.reg.AppendMessage(msg)

	var out outbox
	out.broadcast(domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
	c.activity(&out)
	posted := &Posted{Message: msg, Role: author.Role}
	if author.Role == domain.RoleGuest {
		if s, ok := c.CurrentGuestSession(); ok {
			posted.Session = &s
		}
	}
	return out, posted
}

// PostAssistantReply records a chat message on behalf of a non-occupant author.
// It is dropped unless the session it answers still holds the guest seat.
func (c *Coordinator) PostAssistantReply(to GuestSession, author domain.Identity, body string, now time.Time) []Instruction {
	if cur, ok := c.CurrentGuestSession(); !ok || cur.GuestID != to.GuestID || !cur.StartedAt.Equal(to.StartedAt) {
		return nil
	}
	msg := domain.NewChatMessage(author, body, now)
	c.reg.AppendMessage(msg)
	var out outbox
	out.broadcast(domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
	return out
}

func (c *Coordinator) TypingStart(callerID domain.UserID, now time.Time) []Instruction {
	occ := c.reg.Occupant(callerID)
	if occ == nil {
		return nil
	}
	c.reg.TouchActivity(callerID, now)
	var out outbox
	out.others(callerID, domain.EventUserTyping, domain.UserTypingPayload{
		OccupantID: occ.ID,
		Name:       occ.Name,
		Role:       occ.Role,
	})
	c.activity(&out)
	return out
}

func (c *Coordinator) TypingStop(callerID domain.UserID, now time.Time) []Instruction {
	if c.reg.Occupant(callerID) == nil {
		return nil
	}
	c.reg.TouchActivity(callerID, now)
	var out outbox
	out.others(callerID, domain.EventUserStoppedTyping, domain.UserStoppedTypingPayload{OccupantID: callerID})
	c.activity(&out)
	return out
}

// Ping answers a heartbeat. Seated callers also count it as activity.
func (c *Coordinator) Ping(callerID domain.UserID, now time.Time) []Instruction {
	c.reg.TouchActivity(callerID, now)
	var out outbox
	out.unicast(callerID, domain.EventPong, domain.PongPayload{})
	return out
}

// RoomState sends the current snapshot and the retained messages to a seated caller.
func (c *Coordinator) RoomState(callerID domain.UserID) []Instruction {
	if !c.reg.RoleOf(callerID).Seated() {
		return nil
	}
	var out outbox
	out.unicast(callerID, domain.EventRoomState, domain.RoomStatePayload{
		Room:     c.reg.Snapshot(),
		Messages: c.reg.Messages(),
	})
	return out
}
