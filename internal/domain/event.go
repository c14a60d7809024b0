package domain

// EventName is the "type" field of every frame sent to clients.
type EventName string

const (
	EventJoined              EventName = "joined"
	EventOccupantJoined      EventName = "occupantJoined"
	EventOccupantLeft        EventName = "occupantLeft"
	EventGuestRequested      EventName = "guestRequested"
	EventPendingCountChanged EventName = "pendingCountChanged"
	EventNewMessage          EventName = "newMessage"
	EventUserTyping          EventName = "userTyping"
	EventUserStoppedTyping   EventName = "userStoppedTyping"
	EventActivityUpdated     EventName = "activityUpdated"
	EventApproved            EventName = "approved"
	EventRejected            EventName = "rejected"
	EventKicked              EventName = "kicked"
	EventLeft                EventName = "left"
	EventRoomState           EventName = "roomState"
	EventPong                EventName = "pong"
	EventError               EventName = "error"
)

// Kick reasons carried by EventKicked.
const (
	ReasonAdmin          = "admin"
	ReasonReplaced       = "replaced"
	ReasonInactive       = "inactive"
	ReasonSessionExpired = "session-expired"
)

type JoinedPayload struct {
	Success bool          `json:"success"`
	Role    Role          `json:"role,omitempty"`
	Error   string        `json:"error,omitempty"`
	Room    *RoomSnapshot `json:"roomSnapshot,omitempty"`
}

type OccupantJoinedPayload struct {
	Occupant Occupant `json:"occupant"`
	Role     Role     `json:"role"`
}

type OccupantLeftPayload struct {
	OccupantID UserID `json:"occupantId"`
	Role       Role   `json:"role"`
}

type GuestRequestedPayload struct {
	Entry PendingRequest `json:"entry"`
}

type PendingCountPayload struct {
	Count int `json:"count"`
}

type NewMessagePayload struct {
	Message Message `json:"message"`
}

type UserTypingPayload struct {
	OccupantID UserID `json:"occupantId"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
}

type UserStoppedTypingPayload struct {
	OccupantID UserID `json:"occupantId"`
}

type ActivityUpdatedPayload struct {
	Room RoomSnapshot `json:"roomSnapshot"`
}

type ApprovedPayload struct {
	Name string `json:"name"`
}

type RejectedPayload struct{}

type KickedPayload struct {
	Reason string `json:"reason,omitempty"`
}

type LeftPayload struct{}

type RoomStatePayload struct {
	Room     RoomSnapshot `json:"roomSnapshot"`
	Messages []Message    `json:"messages"`
}

type PongPayload struct{}

type ErrorPayload struct {
	Error string `json:"error"`
}
