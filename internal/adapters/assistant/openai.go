// Package assistant talks to an OpenAI-compatible chat completion API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("empty completion")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAI implements orch.Responder.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

func New(cfg Config) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

func systemPrompt(guestName string) string {
	if guestName == "" {
		guestName = "Guest"
	}
	return fmt.Sprintf("You are a helpful AI assistant in a chat room. A guest named %q is asking you questions. "+
		"Respond in a friendly, helpful manner. Keep your responses concise but informative.", guestName)
}

// buildMessages maps the room history onto chat roles: the assistant's own
// lines become "assistant", everybody else speaks as "user".
func buildMessages(req orch.AssistantRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.GuestName)})
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.AuthorID == orch.AssistantID {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Name: participantName(m), Content: m.Body})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})
}

// participantName keeps only characters the API accepts in the name field.
func participantName(m domain.Message) string {
	if m.AuthorID == orch.AssistantID {
		return ""
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, m.AuthorName)
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

func (a *OpenAI) Respond(ctx context.Context, req orch.AssistantRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    buildMessages(req),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	log.Debug().Str("module", "assistant").Int("tokens", resp.Usage.TotalTokens).Msg("completion")
	return resp.Choices[0].Message.Content, nil
}
