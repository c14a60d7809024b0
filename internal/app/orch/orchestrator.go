package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const DefaultSweepInterval = 30 * time.Second

type Deps struct {
	Coordinator   *core.Coordinator
	Gateway       core.Gateway
	Conns         *app.Registry
	Metrics       *metrics.Metrics
	Assistant     *Assistant
	SweepInterval time.Duration
	Clock         func() time.Time
}

// Orchestrator is the single writer of the room. Every operation runs under one
// lock and hands its instructions to the gateway before releasing it, so clients
// observe events in the order operations were applied.
type Orchestrator struct {
	mu    sync.Mutex
	coord *core.Coordinator
	gw    core.Gateway
	conns *app.Registry

	metrics   *metrics.Metrics
	assistant *Assistant
	every     time.Duration
	clock     func() time.Time

	ctx context.Context
	wg  conc.WaitGroup
}

// New wires the orchestrator. ctx bounds background assistant replies.
func New(ctx context.Context, d Deps) *Orchestrator {
	o := &Orchestrator{
		coord:     d.Coordinator,
		gw:        d.Gateway,
		conns:     d.Conns,
		metrics:   d.Metrics,
		assistant: d.Assistant,
		every:     d.SweepInterval,
		clock:     d.Clock,
		ctx:       ctx,
	}
	if o.every <= 0 {
		o.every = DefaultSweepInterval
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.conns == nil {
		o.conns = app.NewRegistry()
	}
	return o
}

func (o *Orchestrator) Conns() *app.Registry { return o.conns }

// apply runs op under the lock and delivers what it produced.
func (o *Orchestrator) apply(op func(now time.Time) []core.Instruction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deliver(op(o.clock()))
}

func (o *Orchestrator) deliver(ins []core.Instruction) {
	o.metrics.SetPending(o.coord.Registry().PendingCount())
	if len(ins) == 0 {
		return
	}
	o.gw.Deliver(ins)
	o.metrics.Observe(ins)
}

// Run drives the timeout sweeper until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	t := time.NewTicker(o.every)
	defer t.Stop()
	log.Info().Str("module", "orch").Dur("every", o.every).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("sweeper stopped")
			return
		case <-t.C:
			o.Sweep()
		}
	}
}

// Sweep runs one tick of the timeout sweeper.
func (o *Orchestrator) Sweep() core.SweepOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	ins, outcome := o.coord.Sweep(o.clock())
	o.deliver(ins)
	if outcome != core.SweepNone {
		log.Info().Str("module", "orch").Str("outcome", outcome.String()).Msg("sweep")
	}
	return outcome
}

// Wait blocks until in-flight assistant replies have finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

type RoomStatus struct {
	AdminPresent bool `json:"adminPresent"`
	GuestPresent bool `json:"guestPresent"`
	PendingCount int  `json:"pendingCount"`
	Connections  int  `json:"connections"`
}

func (o *Orchestrator) Status() RoomStatus {
	o.mu.Lock()
	reg := o.coord.Registry()
	st := RoomStatus{
		AdminPresent: reg.Admin() != nil,
		GuestPresent: reg.Guest() != nil,
		PendingCount: reg.PendingCount(),
	}
	o.mu.Unlock()
	st.Connections = o.conns.Count()
	return st
}
