package core

import (
	"time"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// AdmitResult reports an admin admission attempt.
type AdmitResult struct {
	Accepted bool
	Admin    *domain.Occupant
	Replaced *domain.Occupant
}

type EnqueueOutcome uint8

const (
	EnqueueQueued EnqueueOutcome = iota
	EnqueueAlreadyJoined
	EnqueueQueueFull
)

type ApproveOutcome uint8

const (
	ApproveSeated ApproveOutcome = iota
	ApproveNotFound
	ApproveSeatTaken
)

// Removed describes what RemoveOccupant took out of the room.
type Removed struct {
	Role domain.Role
	Name string
}

// Registry is the in-memory room: two seats, a waiting list and the message log.
// It is not safe for concurrent use; the orchestrator is its single writer.
type Registry struct {
	admin      *domain.Occupant
	guest      *domain.Occupant
	pending    []domain.PendingRequest
	messages   *MessageRing
	password   PasswordChecker
	maxPending int
}

// NewRegistry builds an empty room. A nil checker accepts any admin password;
// maxPending <= 0 leaves the waiting list unbounded.
func NewRegistry(password PasswordChecker, historySize, maxPending int) *Registry {
	return &Registry{
		pending:    []domain.PendingRequest{},
		messages:   NewMessageRing(historySize),
		password:   password,
		maxPending: maxPending,
	}
}

// RoleOf looks the id up across both seats and the waiting list.
func (r *Registry) RoleOf(id domain.UserID) domain.Role {
	switch {
	case r.admin != nil && r.admin.ID == id:
		return domain.RoleAdmin
	case r.guest != nil && r.guest.ID == id:
		return domain.RoleGuest
	}
	if _, _, ok := r.findPending(id); ok {
		return domain.RolePending
	}
	return domain.RoleNone
}

// Occupant returns a copy of the seated occupant with that id, if any.
func (r *Registry) Occupant(id domain.UserID) *domain.Occupant {
	switch {
	case r.admin != nil && r.admin.ID == id:
		return r.admin.Clone()
	case r.guest != nil && r.guest.ID == id:
		return r.guest.Clone()
	}
	return nil
}

func (r *Registry) Admin() *domain.Occupant { return r.admin.Clone() }
func (r *Registry) Guest() *domain.Occupant { return r.guest.Clone() }
func (r *Registry) PendingCount() int       { return len(r.pending) }

// Pending returns the request queued under id.
func (r *Registry) Pending(id domain.UserID) (domain.PendingRequest, bool) {
	p, _, ok := r.findPending(id)
	return p, ok
}

// AdmitAdmin seats a new admin. The latest admin with a valid password wins and
// the previous one is handed back for eviction.
func (r *Registry) AdmitAdmin(id domain.Identity, supplied string, now time.Time) AdmitResult {
	if r.password != nil && !r.password.Verify(supplied) {
		log.Info().Str("module", "core.registry").Str("sid", string(id.ID)).Msg("admin password rejected")
		return AdmitResult{}
	}
	prev := r.admin
	r.admin = domain.NewOccupant(id, domain.RoleAdmin, now)
	ev := log.Info().Str("module", "core.registry").Str("sid", string(id.ID)).Str("name", id.Name)
	if prev != nil {
		ev = ev.Str("replaced", string(prev.ID))
	}
	ev.Msg("admin seated")
	return AdmitResult{Accepted: true, Admin: r.admin.Clone(), Replaced: prev}
}

// EnqueueGuest puts a guest on the waiting list. Guests are never seated directly.
func (r *Registry) EnqueueGuest(id domain.Identity, now time.Time) (domain.PendingRequest, EnqueueOutcome) {
	if r.RoleOf(id.ID) != domain.RoleNone {
		return domain.PendingRequest{}, EnqueueAlreadyJoined
	}
	if r.maxPending > 0 && len(r.pending) >= r.maxPending {
		log.Warn().Str("module", "core.registry").Int("pending", len(r.pending)).Msg("waiting list full")
		return domain.PendingRequest{}, EnqueueQueueFull
	}
	entry := domain.NewPendingRequest(id, now)
	r.pending = append(r.pending, entry)
	log.Info().Str("module", "core.registry").Str("sid", string(id.ID)).Str("name", id.Name).
		Int("pending", len(r.pending)).Msg("guest queued")
	return entry, EnqueueQueued
}

// Approve moves a pending request into the guest seat. An occupied seat is never
// overwritten: the entry stays queued and the blocked request is returned.
func (r *Registry) Approve(pendingID domain.UserID, now time.Time) (*domain.Occupant, domain.PendingRequest, ApproveOutcome) {
	entry, idx, ok := r.findPending(pendingID)
	if !ok {
		return nil, domain.PendingRequest{}, ApproveNotFound
	}
	if r.guest != nil {
		return nil, entry, ApproveSeatTaken
	}
	r.pending = append(r.pending[:idx], r.pending[idx+1:]...)
	r.guest = domain.NewOccupant(domain.Identity{ID: entry.ID, Name: entry.Name}, domain.RoleGuest, now)
	log.Info().Str("module", "core.registry").Str("sid", string(entry.ID)).Str("name", entry.Name).Msg("guest seated")
	return r.guest.Clone(), entry, ApproveSeated
}

func (r *Registry) Reject(pendingID domain.UserID) (domain.PendingRequest, bool) {
	entry, idx, ok := r.findPending(pendingID)
	if !ok {
		return domain.PendingRequest{}, false
	}
	r.pending = append(r.pending[:idx], r.pending[idx+1:]...)
	log.Info().Str("module", "core.registry").Str("sid", string(entry.ID)).Msg("guest request rejected")
	return entry, true
}

// KickGuest empties the guest seat and drops any stale pending entry with the same id.
func (r *Registry) KickGuest() *domain.Occupant {
	if r.guest == nil {
		return nil
	}
	evicted := r.guest
	r.guest = nil
	r.pending = lo.Filter(r.pending, func(p domain.PendingRequest, _ int) bool {
		return p.ID != evicted.ID
	})
	log.Info().Str("module", "core.registry").Str("sid", string(evicted.ID)).Msg("guest evicted")
	return evicted
}

// RemoveOccupant drops id from whichever collection holds it.
func (r *Registry) RemoveOccupant(id domain.UserID) Removed {
	if r.admin != nil && r.admin.ID == id {
		name := r.admin.Name
		r.admin = nil
		log.Info().Str("module", "core.registry").Str("sid", string(id)).Msg("admin removed")
		return Removed{Role: domain.RoleAdmin, Name: name}
	}
	if r.guest != nil && r.guest.ID == id {
		name := r.guest.Name
		r.guest = nil
		log.Info().Str("module", "core.registry").Str("sid", string(id)).Msg("guest removed")
		return Removed{Role: domain.RoleGuest, Name: name}
	}
	if entry, idx, ok := r.findPending(id); ok {
		r.pending = append(r.pending[:idx], r.pending[idx+1:]...)
		log.Info().Str("module", "core.registry").Str("sid", string(id)).Msg("pending request removed")
		return Removed{Role: domain.RolePending, Name: entry.Name}
	}
	return Removed{Role: domain.RoleNone}
}

// TouchActivity refreshes lastActivityAt of a seated occupant.
func (r *Registry) TouchActivity(id domain.UserID, now time.Time) bool {
	switch {
	case r.admin != nil && r.admin.ID == id:
		r.admin.LastActivityAt = now
	case r.guest != nil && r.guest.ID == id:
		r.guest.LastActivityAt = now
	default:
		return false
	}
	log.Debug().Str("module", "core.registry").Str("sid", string(id)).Msg("activity")
	return true
}

// MarkGuestWarned flips the one-shot session warning flag.
func (r *Registry) MarkGuestWarned() bool {
	if r.guest == nil || r.guest.WarningIssued {
		return false
	}
	r.guest.WarningIssued = true
	return true
}

func (r *Registry) AppendMessage(m domain.Message) {
	if r.messages.Push(m) {
		log.Debug().Str("module", "core.registry").Msg("history full, oldest message dropped")
	}
}

func (r *Registry) Messages() []domain.Message { return r.messages.Items() }

// Snapshot returns detached copies of both seats and the waiting list.
func (r *Registry) Snapshot() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		Admin: r.admin.Clone(),
		Guest: r.guest.Clone(),
		Pending: lo.Map(r.pending, func(p domain.PendingRequest, _ int) domain.PendingRequest {
			return p
		}),
	}
}

func (r *Registry) findPending(id domain.UserID) (domain.PendingRequest, int, bool) {
	return lo.FindIndexOf(r.pending, func(p domain.PendingRequest) bool {
		return p.ID == id
	})
}
