package domain

// RoomSnapshot is a read-only view of the seats and the waiting list.
type RoomSnapshot struct {
	Admin   *Occupant        `json:"admin"`
	Guest   *Occupant        `json:"guest"`
	Pending []PendingRequest `json:"pending"`
}
