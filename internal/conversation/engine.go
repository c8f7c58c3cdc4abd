// Package conversation runs retrieval-augmented asks against session history.
package conversation

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/hyperjump/kaiwa/internal/llm"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/retrieval"
	"github.com/hyperjump/kaiwa/internal/session"
	"go.uber.org/zap"
)

// Settings is the prompt policy.
type Settings struct {
	SystemPrompt   string
	HistoryTurns   int
	DefaultTopK    int
	EmbeddingModel string
	ChatModel      string
}

// sessionStripes is the number of locks session ids are hashed onto.
const sessionStripes = 64

// Engine orchestrates ingest and ask. It is built once at startup and shared by all
// request handlers. Session writes and the history read of one ask are serialized per
// session; provider calls run unlocked.
type Engine struct {
	retriever *retrieval.Retriever
	sessions  session.Store
	completer llm.Completer
	settings  Settings
	logger    *zap.Logger

	stripes [sessionStripes]sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. Non-positive HistoryTurns and DefaultTopK fall back to 8 and 4.
func NewEngine(retriever *retrieval.Retriever, sessions session.Store, completer llm.Completer, settings Settings, opts ...Option) *Engine {
	if settings.HistoryTurns <= 0 {
		settings.HistoryTurns = 8
	}
	if settings.DefaultTopK <= 0 {
		settings.DefaultTopK = models.DefaultTopK
	}
	e := &Engine{
		retriever: retriever,
		sessions:  sessions,
		completer: completer,
		settings:  settings,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest validates and stores a document.
func (e *Engine) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	total, err := e.retriever.Ingest(ctx, req.Content, req.Metadata)
	if err != nil {
		return nil, err
	}
	return &models.IngestResponse{Status: models.StatusIndexed, TotalDocs: total}, nil
}

// Ask answers a query in the context of a session. The user turn is recorded before the
// provider is called and is kept if the completion fails.
//
// The history window is read together with the user-turn append, so a prompt always
// ends with its own query. Concurrent asks on one session are not queued behind each
// other's completions: a later ask sees an earlier one's user turn without its answer.
func (e *Engine) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sid, err := e.sessions.GetOrCreate(ctx, req.Session())
	if err != nil {
		return nil, err
	}
	history, err := e.recordQuery(ctx, sid, req.Query)
	if err != nil {
		return nil, err
	}

	var snippets []string
	topK := req.TopKOrDefault(e.settings.DefaultTopK)
	if req.AllowToolsOrDefault() && e.retriever.Count() > 0 {
		snippets, err = e.retriever.Retrieve(ctx, req.Query, topK)
		if err != nil {
			return nil, err
		}
	}

	messages := BuildMessages(e.settings.SystemPrompt, history, snippets)
	e.logger.Debug("ask",
		zap.String("session_id", sid),
		zap.Int("top_k", topK),
		zap.Int("history_turns", len(history)),
		zap.Int("context_docs", len(snippets)),
	)

	answer, err := e.completer.Complete(ctx, messages)
	if err != nil {
		e.logger.Warn("completion failed", zap.String("session_id", sid), zap.Error(err))
		return nil, models.NewError(models.ErrCompletion, "ask", err)
	}
	mu := e.sessionLock(sid)
	mu.Lock()
	err = e.sessions.Append(ctx, sid, models.Turn{Role: models.RoleAssistant, Content: answer})
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &models.AskResponse{
		SessionID:       sid,
		Answer:          answer,
		ContextDocsUsed: len(snippets),
	}, nil
}

// recordQuery appends the user turn and returns the history window ending with it.
func (e *Engine) recordQuery(ctx context.Context, sid, query string) ([]models.Turn, error) {
	mu := e.sessionLock(sid)
	mu.Lock()
	defer mu.Unlock()
	if err := e.sessions.Append(ctx, sid, models.Turn{Role: models.RoleUser, Content: query}); err != nil {
		return nil, err
	}
	return e.sessions.Recent(ctx, sid, e.settings.HistoryTurns)
}

func (e *Engine) sessionLock(sid string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))
	return &e.stripes[h.Sum32()%sessionStripes]
}

// History returns every turn of a session.
func (e *Engine) History(ctx context.Context, sessionID string) (*models.SessionHistory, error) {
	turns, err := e.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionHistory{SessionID: sessionID, Turns: turns}, nil
}

// Status is the liveness probe.
func (e *Engine) Status() *models.StatusResponse {
	return &models.StatusResponse{Status: "kaiwa backend running"}
}

// Stats reports store sizes and the active prompt policy.
func (e *Engine) Stats(ctx context.Context) (*models.StatsResponse, error) {
	sessions, err := e.sessions.Count(ctx)
	if err != nil {
		return nil, err
	}
	resp := &models.StatsResponse{
		Documents:      e.retriever.Count(),
		Vectors:        e.retriever.VectorCount(),
		Sessions:       sessions,
		Dimensions:     e.retriever.Dimensions(),
		EmbeddingModel: e.settings.EmbeddingModel,
		ChatModel:      e.settings.ChatModel,
		HistoryTurns:   e.settings.HistoryTurns,
	}
	if n, err := e.retriever.Checkpoint().DiskUsage(); err == nil {
		resp.DiskUsageBytes = n
	} else {
		e.logger.Debug("disk usage unavailable", zap.Error(err))
	}
	return resp, nil
}
