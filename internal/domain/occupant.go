package domain

import "time"

// Occupant holds the admin or the guest seat.
// No transport or lifecycle logic here.
type Occupant struct {
	ID               UserID     `json:"id"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	JoinedAt         time.Time  `json:"joinedAt"`
	LastActivityAt   time.Time  `json:"lastActivityAt"`
	SessionStartedAt *time.Time `json:"sessionStartedAt,omitempty"`
	WarningIssued    bool       `json:"warningIssued"`
}

// NewOccupant seats an identity. Guests also get a session clock.
func NewOccupant(id Identity, role Role, now time.Time) *Occupant {
	o := &Occupant{
		ID:             id.ID,
		Name:           id.Name,
		Role:           role,
		JoinedAt:       now,
		LastActivityAt: now,
	}
	if role == RoleGuest {
		started := now
		o.SessionStartedAt = &started
	}
	return o
}

// Clone returns a detached copy safe to hand out of the registry.
func (o *Occupant) Clone() *Occupant {
	if o == nil {
		return nil
	}
	c := *o
	if o.SessionStartedAt != nil {
		started := *o.SessionStartedAt
		c.SessionStartedAt = &started
	}
	return &c
}

// PendingRequest is a guest waiting for the admin's decision.
type PendingRequest struct {
	ID          UserID    `json:"id"`
	Name        string    `json:"name"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewPendingRequest(id Identity, now time.Time) PendingRequest {
	return PendingRequest{ID: id.ID, Name: id.Name, RequestedAt: now}
}
