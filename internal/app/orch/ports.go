//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../../mocks/mock_orch.go -package=mocks
package orch

import (
	"context"

	"github.com/dkeye/Duet/internal/domain"
)

// AssistantRequest is what the text-generation collaborator sees for one guest message.
type AssistantRequest struct {
	Message   string
	GuestName string
	History   []domain.Message
}

// Responder produces the assistant's reply to a guest message.
type Responder interface {
	Respond(ctx context.Context, req AssistantRequest) (string, error)
}
