package app

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type connEntry struct {
	Conn        core.SignalConnection
	Cancel      context.CancelFunc
	Token       string
	ConnectedAt time.Time
}

// Registry tracks every open signal connection, seated or not.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.UserID]*connEntry),
	}
}

func (r *Registry) Bind(sid domain.UserID, conn core.SignalConnection, cancel context.CancelFunc, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{
		Conn:        conn,
		Cancel:      cancel,
		Token:       token,
		ConnectedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("token", token).Msg("bound signal")
}

// Unbind reports whether sid was still registered.
func (r *Registry) Unbind(sid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[sid]; !ok {
		return false
	}
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind signal")
	return true
}

func (r *Registry) Get(sid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

type ConnSnap struct {
	SID  domain.UserID
	Conn core.SignalConnection
}

// Connections is a point-in-time copy for fan-out outside the lock, ordered by id.
func (r *Registry) Connections() []ConnSnap {
	r.mu.RLock()
	out := lo.MapToSlice(r.conns, func(sid domain.UserID, e *connEntry) ConnSnap {
		return ConnSnap{SID: sid, Conn: e.Conn}
	})
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b ConnSnap) int { return strings.Compare(string(a.SID), string(b.SID)) })
	return out
}

func (r *Registry) Cancel(sid domain.UserID) bool {
	r.mu.RLock()
	e, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled signal")
	return true
}
