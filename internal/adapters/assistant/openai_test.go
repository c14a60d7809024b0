package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Respond(t *testing.T) {
	req := require.New(t)
	var seen openai.ChatCompletionRequest
	srv := fakeAPI(t, "Hello Bob!", &seen)

	a := New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 150, Temperature: 0.7})
	out, err := a.Respond(context.Background(), orch.AssistantRequest{
		Message:   "hi",
		GuestName: "Bob",
		History: []domain.Message{
			{AuthorID: "bob", AuthorName: "Bob Smith", Body: "earlier"},
			{AuthorID: orch.AssistantID, AuthorName: "AI Assistant", Body: "answer"},
		},
	})

	req.NoError(err)
	req.Equal("Hello Bob!", out)
	req.Equal("gpt-4.1-mini", seen.Model)
	req.Equal(150, seen.MaxTokens)
	req.Len(seen.Messages, 4)
	req.Equal(openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	req.Contains(seen.Messages[0].Content, `"Bob"`)
	req.Equal("Bob_Smith", seen.Messages[1].Name)
	req.Equal(openai.ChatMessageRoleAssistant, seen.Messages[2].Role)
	req.Equal("hi", seen.Messages[3].Content)
}

func TestOpenAI_EmptyCompletion(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := fakeAPI(t, "   ", &seen)

	_, err := New(Config{APIKey: "test-key", BaseURL: srv.URL}).Respond(context.Background(), orch.AssistantRequest{Message: "hi"})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAI_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "test-key", BaseURL: srv.URL}).Respond(context.Background(), orch.AssistantRequest{Message: "hi"})
	require.Error(t, err)
}

func TestSystemPrompt_DefaultsGuestName(t *testing.T) {
	require.Contains(t, systemPrompt(""), `"Guest"`)
}
