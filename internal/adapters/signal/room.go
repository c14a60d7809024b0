package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	errBadPayload     = "bad_payload"
	errInvalidPayload = "invalid_payload"
	errRateLimited    = "rate_limited"
)

type joinPayload struct {
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin guest"`
	Password string `json:"password,omitempty" validate:"max=128"`
}

type messagePayload struct {
	Body string `json:"body"`
}

type decisionPayload struct {
	PendingID string `json:"pendingId" validate:"required,max=64"`
}

func (ctl *SignalWSController) replyError(sid domain.UserID, code string) {
	ctl.Orch.Notify(sid, domain.EventError, domain.ErrorPayload{Error: code})
}

// decode unmarshals and validates data into v, answering the caller on failure.
func (ctl *SignalWSController) decode(sid domain.UserID, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad payload")
		ctl.replyError(sid, errBadPayload)
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid payload")
		ctl.replyError(sid, errInvalidPayload)
		return false
	}
	return true
}

func (ctl *SignalWSController) allow(sid domain.UserID) bool {
	if ctl.limiter.Allow(sid) {
		return true
	}
	log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited")
	ctl.replyError(sid, errRateLimited)
	return false
}

func (ctl *SignalWSController) handleJoin(sid domain.UserID, data json.RawMessage) {
	var p joinPayload
	if !ctl.decode(sid, data, &p) {
		return
	}
	id, err := domain.NewIdentity(sid, p.Name)
	if err != nil {
		ctl.Orch.Notify(sid, domain.EventJoined, domain.JoinedPayload{Error: err.Error()})
		return
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		ctl.replyError(sid, errInvalidPayload)
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", id.Name).Str("role", role.String()).Msg("join")
	switch role {
	case domain.RoleAdmin:
		ctl.Orch.JoinAdmin(id, p.Password)
	case domain.RoleGuest:
		ctl.Orch.JoinGuest(id)
	case domain.RoleNone, domain.RolePending:
		ctl.replyError(sid, errInvalidPayload)
	}
}

func (ctl *SignalWSController) handleSendMessage(sid domain.UserID, data json.RawMessage) {
	var p messagePayload
	if !ctl.decode(sid, data, &p) {
		return
	}
	if strings.TrimSpace(p.Body) == "" {
		return
	}
	if err := ctl.validate.Var(p.Body, fmt.Sprintf("max=%d", ctl.opts.MaxMessageLength)); err != nil {
		ctl.replyError(sid, errInvalidPayload)
		return
	}
	if !ctl.allow(sid) {
		return
	}
	ctl.Orch.SendMessage(sid, p.Body)
}

func (ctl *SignalWSController) handleDecision(sid domain.UserID, data json.RawMessage, apply func(sid, pendingID domain.UserID)) {
	var p decisionPayload
	if !ctl.decode(sid, data, &p) {
		return
	}
	apply(sid, domain.UserID(p.PendingID))
}
