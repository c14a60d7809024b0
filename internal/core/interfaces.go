//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_core.go -package=mocks
package core

import "github.com/dkeye/Duet/internal/domain"

// Frame is a raw encoded payload ready for the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// TargetKind selects who receives an instruction.
type TargetKind uint8

const (
	ToOne TargetKind = iota
	ToAll
	ToOthers
)

// Target is a recipient selector. ID is the recipient for ToOne and the
// excluded connection for ToOthers.
type Target struct {
	Kind TargetKind
	ID   domain.UserID
}

func Unicast(id domain.UserID) Target         { return Target{Kind: ToOne, ID: id} }
func Broadcast() Target                       { return Target{Kind: ToAll} }
func BroadcastExcept(id domain.UserID) Target { return Target{Kind: ToOthers, ID: id} }

// Instruction is one outbound event the gateway has to deliver.
type Instruction struct {
	To      Target
	Event   domain.EventName
	Payload any
}

// Gateway delivers instructions to connected clients. Implementations must
// not block on slow receivers.
type Gateway interface {
	Deliver(ins []Instruction)
}

// PasswordChecker validates the admin secret without exposing it.
type PasswordChecker interface {
	Verify(supplied string) bool
}
