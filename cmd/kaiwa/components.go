package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/conversation"
	"github.com/hyperjump/kaiwa/internal/embedding"
	"github.com/hyperjump/kaiwa/internal/llm"
	"github.com/hyperjump/kaiwa/internal/retrieval"
	"github.com/hyperjump/kaiwa/internal/session"
	"github.com/hyperjump/kaiwa/internal/storage"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Components holds initialized services.
type Components struct {
	Embedder  embedding.Embedder
	Sessions  session.Store
	Retriever *retrieval.Retriever
	Engine    *conversation.Engine
}

// Close releases provider and session store resources.
func (c *Components) Close() {
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// initializeComponents builds providers, loads the checkpoint, and wires the engine.
// cfg must already be validated.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var (
		client  *openai.Client
		limiter *rate.Limiter
	)
	if cfg.Embedding.Provider == config.ProviderOpenAI || cfg.Chat.Provider == config.ProviderOpenAI {
		oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		oc.HTTPClient = &http.Client{Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second}
		client = openai.NewClientWithConfig(oc)
		// One limiter for both endpoints: they share the account's request quota.
		limiter = rate.NewLimiter(rate.Limit(cfg.OpenAI.RequestsPerSecond), cfg.OpenAI.Burst)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		embedder = embedding.NewOpenAIEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimensions, limiter)
	default:
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	embedder = embedding.NewCachingEmbedder(embedder, cfg.Embedding.CacheSize)

	var completer llm.Completer
	switch cfg.Chat.Provider {
	case config.ProviderOpenAI:
		completer = llm.NewOpenAICompleter(client, cfg.Chat.Model, limiter)
	default:
		completer = llm.EchoCompleter{}
	}

	var sessions session.Store
	if cfg.Storage.SessionsDatabasePath != "" {
		s, err := session.NewSQLiteStore(cfg.Storage.SessionsDatabasePath)
		if err != nil {
			_ = embedder.Close()
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		sessions = s
	} else {
		sessions = session.NewMemoryStore()
	}

	checkpoint := storage.NewCheckpoint(cfg.Storage.DataDir, cfg.Storage.IndexFile, cfg.Storage.MetadataFile,
		storage.WithLogger(logger))
	retriever, err := retrieval.Open(embedder, checkpoint, retrieval.WithLogger(logger))
	if err != nil {
		_ = sessions.Close()
		_ = embedder.Close()
		return nil, err
	}
	logger.Info("vector store loaded",
		zap.String("dir", cfg.Storage.DataDir),
		zap.Int("documents", retriever.Count()),
		zap.Int("dimensions", retriever.Dimensions()),
	)

	engine := conversation.NewEngine(retriever, sessions, completer, conversation.Settings{
		SystemPrompt:   cfg.Chat.SystemPrompt,
		HistoryTurns:   cfg.Chat.HistoryTurns,
		DefaultTopK:    cfg.Chat.DefaultTopK,
		EmbeddingModel: cfg.Embedding.Model,
		ChatModel:      cfg.Chat.Model,
	}, conversation.WithLogger(logger))

	return &Components{
		Embedder:  embedder,
		Sessions:  sessions,
		Retriever: retriever,
		Engine:    engine,
	}, nil
}
