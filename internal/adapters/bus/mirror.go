// Package bus mirrors public room events to a Redis channel for outside observers.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultQueue = 256

type Event struct {
	Type domain.EventName `json:"type"`
	Data any              `json:"data"`
	At   time.Time        `json:"at"`
}

// Mirror wraps a Gateway. Broadcasts are queued after local delivery and
// published by Run; unicasts never leave the process.
type Mirror struct {
	next    core.Gateway
	rdb     redis.UniversalClient
	channel string
	queue   chan Event
	now     func() time.Time
}

func NewMirror(next core.Gateway, rdb redis.UniversalClient, channel string) *Mirror {
	return &Mirror{
		next:    next,
		rdb:     rdb,
		channel: channel,
		queue:   make(chan Event, defaultQueue),
		now:     time.Now,
	}
}

// Connect dials Redis and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (m *Mirror) Deliver(ins []core.Instruction) {
	m.next.Deliver(ins)
	now := m.now()
	for _, in := range ins {
		if in.To.Kind == core.ToOne {
			continue
		}
		select {
		case m.queue <- Event{Type: in.Event, Data: in.Payload, At: now}:
		default:
			log.Warn().Str("module", "bus").Str("event", string(in.Event)).Msg("mirror queue full, event dropped")
		}
	}
}

// Run publishes queued events until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.queue:
			if err := m.publish(ctx, ev); err != nil {
				log.Error().Err(err).Str("module", "bus").Str("event", string(ev.Type)).Msg("publish")
			}
		}
	}
}

func (m *Mirror) publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, m.channel, raw).Err()
}
