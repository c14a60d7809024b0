package orch

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	AssistantID   domain.UserID = "assistant"
	FallbackReply               = "I'm sorry, I couldn't generate a response at the moment."
)

// Assistant answers guest messages after a short, randomised pause.
type Assistant struct {
	Responder Responder
	Name      string
	MinDelay  time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration
	History   int
}

func (a *Assistant) identity() domain.Identity {
	name := a.Name
	if name == "" {
		name = "AI Assistant"
	}
	return domain.Identity{ID: AssistantID, Name: name}
}

func (a *Assistant) delay() time.Duration {
	if a.MaxDelay <= a.MinDelay {
		return a.MinDelay
	}
	return a.MinDelay + rand.N(a.MaxDelay-a.MinDelay)
}

// scheduleReply must be called with o.mu held. The prompt only sees the
// asking guest's own session.
func (o *Orchestrator) scheduleReply(trigger domain.Message, session core.GuestSession) {
	if o.assistant == nil || o.assistant.Responder == nil {
		return
	}
	history := o.coord.SessionTranscript(session, 0)
	history = lo.Filter(history, func(m domain.Message, _ int) bool { return m.ID != trigger.ID })
	if n := o.assistant.History; n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	req := AssistantRequest{
		Message:   trigger.Body,
		GuestName: trigger.AuthorName,
		History:   history,
	}
	o.wg.Go(func() { o.reply(req, session) })
}

func (o *Orchestrator) reply(req AssistantRequest, session core.GuestSession) {
	a := o.assistant
	select {
	case <-o.ctx.Done():
		return
	case <-time.After(a.delay()):
	}

	ctx := o.ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	text, err := a.Responder.Respond(ctx, req)
	if o.ctx.Err() != nil {
		return
	}
	result := "ok"
	if text = strings.TrimSpace(text); err != nil || text == "" {
		log.Warn().Err(err).Str("module", "orch.assistant").Msg("assistant failed, using fallback")
		text = FallbackReply
		result = "fallback"
	}

	o.mu.Lock()
	ins := o.coord.PostAssistantReply(session, a.identity(), text, o.clock())
	o.deliver(ins)
	o.mu.Unlock()

	if len(ins) == 0 {
		result = "dropped"
	}
	o.metrics.AssistantReply(result)
	log.Debug().Str("module", "orch.assistant").Str("result", result).Msg("assistant reply")
}
