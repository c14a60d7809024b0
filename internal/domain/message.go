package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SystemAuthorID   UserID = "system"
	SystemAuthorName        = "System"
)

type MessageKind uint8

const (
	KindChat MessageKind = iota
	KindSystem
)

func (k MessageKind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindSystem:
		return "system"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k MessageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MessageKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "chat":
		*k = KindChat
	case "system":
		*k = KindSystem
	default:
		return fmt.Errorf("unknown message kind %q", b)
	}
	return nil
}

// Message is one entry of the room's chat log.
type Message struct {
	ID         string      `json:"id"`
	AuthorID   UserID      `json:"authorId"`
	AuthorName string      `json:"authorName"`
	Body       string      `json:"body"`
	CreatedAt  time.Time   `json:"createdAt"`
	Kind       MessageKind `json:"kind"`
}

func NewMessageID() string { return uuid.NewString() }

func NewChatMessage(author Identity, body string, now time.Time) Message {
	return Message{
		ID:         NewMessageID(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Body:       body,
		CreatedAt:  now,
		Kind:       KindChat,
	}
}

func NewSystemMessage(body string, now time.Time) Message {
	return Message{
		ID:         NewMessageID(),
		AuthorID:   SystemAuthorID,
		AuthorName: SystemAuthorName,
		Body:       body,
		CreatedAt:  now,
		Kind:       KindSystem,
	}
}
