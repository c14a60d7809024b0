package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

type outFrame struct {
	Type domain.EventName `json:"type"`
	Data any              `json:"data"`
}

// Encode renders one event as the client wire frame.
func Encode(ev domain.EventName, payload any) (core.Frame, error) {
	return json.Marshal(outFrame{Type: ev, Data: payload})
}

// Gateway fans instructions out to the registered connections.
type Gateway struct {
	conns  *app.Registry
	policy app.Policy
}

func NewGateway(conns *app.Registry, policy app.Policy) *Gateway {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Gateway{conns: conns, policy: policy}
}

func (g *Gateway) Deliver(ins []core.Instruction) {
	var all []app.ConnSnap
	for _, in := range ins {
		frame, err := Encode(in.Event, in.Payload)
		if err != nil {
			log.Error().Err(err).Str("module", "signal.gateway").Str("event", string(in.Event)).Msg("encode")
			continue
		}
		if in.To.Kind == core.ToOne {
			if conn, ok := g.conns.Get(in.To.ID); ok {
				g.send(in.To.ID, conn, frame)
			}
			continue
		}
		if all == nil {
			all = g.conns.Connections()
		}
		for _, s := range all {
			if in.To.Kind == core.ToOthers && s.SID == in.To.ID {
				continue
			}
			g.send(s.SID, s.Conn, frame)
		}
	}
}

func (g *Gateway) send(sid domain.UserID, conn core.SignalConnection, frame core.Frame) {
	err := conn.TrySend(frame)
	switch {
	case err == nil:
	case errors.Is(err, ErrBackpressure):
		switch g.policy.OnBackPressure(sid) {
		case app.KickMember:
			log.Warn().Str("module", "signal.gateway").Str("sid", string(sid)).Msg("slow client disconnected")
			g.conns.Cancel(sid)
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "signal.gateway").Str("sid", string(sid)).Msg("frame dropped")
		}
	default:
		log.Debug().Err(err).Str("module", "signal.gateway").Str("sid", string(sid)).Msg("send failed")
	}
}
