package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kaiwa/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Anomaly scoring."},"finish_reason":"stop"}]}`))
	})

	c := NewOpenAICompleter(client, "gpt-4o-mini", nil)
	answer, err := c.Complete(context.Background(), []models.Turn{
		{Role: models.RoleSystem, Content: "You are a helpful Fintech assistant."},
		{Role: models.RoleUser, Content: "How is fraud detected?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Anomaly scoring.", answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "How is fraud detected?", got.Messages[1].Content)
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})
	_, err := NewOpenAICompleter(client, "m", nil).Complete(context.Background(), []models.Turn{{Role: models.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAICompleter_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	})
	_, err := NewOpenAICompleter(client, "m", nil).Complete(context.Background(), []models.Turn{{Role: models.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestEchoCompleter(t *testing.T) {
	answer, err := EchoCompleter{}.Complete(context.Background(), []models.Turn{
		{Role: models.RoleSystem, Content: "sys"},
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "reply"},
		{Role: models.RoleUser, Content: "How is fraud detected?"},
		{Role: models.RoleSystem, Content: "Context:\nFraud uses anomaly scoring.\n---\nother"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You asked: How is fraud detected?\nFrom the knowledge base: Fraud uses anomaly scoring.", answer)

	answer, err = EchoCompleter{}.Complete(context.Background(), []models.Turn{{Role: models.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "You asked: hi", answer)
}
