package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/conversation"
	"github.com/hyperjump/kaiwa/internal/embedding"
	"github.com/hyperjump/kaiwa/internal/llm"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/retrieval"
	"github.com/hyperjump/kaiwa/internal/server"
	"github.com/hyperjump/kaiwa/internal/session"
	"github.com/hyperjump/kaiwa/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *Client {
	t.Helper()
	r, err := retrieval.Open(embedding.NewMockEmbedder(32), storage.NewCheckpoint(t.TempDir(), "", ""))
	require.NoError(t, err)
	engine := conversation.NewEngine(r, session.NewMemoryStore(), llm.EchoCompleter{}, conversation.Settings{SystemPrompt: "sys"})
	srv := httptest.NewServer(server.NewServer(engine, &config.ServerConfig{}, nil).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newBackend(t)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kaiwa backend running", st.Status)

	ing, err := c.Ingest(ctx, &models.IngestRequest{Content: "Card payments settle in two days.", Metadata: map[string]interface{}{"title": "settlement"}})
	require.NoError(t, err)
	assert.Equal(t, 1, ing.TotalDocs)

	topK := 1
	ans, err := c.Ask(ctx, &models.AskRequest{Query: "When do card payments settle?", TopK: &topK})
	require.NoError(t, err)
	assert.Equal(t, 1, ans.ContextDocsUsed)
	assert.Contains(t, ans.Answer, "settle in two days")

	hist, err := c.History(ctx, ans.SessionID)
	require.NoError(t, err)
	assert.Len(t, hist.Turns, 2)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Sessions)
}

func TestClient_APIError(t *testing.T) {
	c := newBackend(t)
	_, err := c.History(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "session not found")

	_, err = c.Ask(context.Background(), &models.AskRequest{})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	_, err := New(srv.URL, nil).Stats(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClient_SendsJSON(t *testing.T) {
	var got models.AskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.AskResponse{SessionID: "abc", Answer: "ok"})
	}))
	defer srv.Close()
	sid := "abc"
	resp, err := New(srv.URL, nil).Ask(context.Background(), &models.AskRequest{Query: "q", SessionID: &sid})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.Equal(t, "q", got.Query)
	require.NotNil(t, got.SessionID)
	assert.Equal(t, "abc", *got.SessionID)
}
