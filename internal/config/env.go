package config

import (
	"fmt"
	"strconv"

	"github.com/hyperjump/kaiwa/internal/models"
)

// Environment variables that override the config file.
const (
	EnvEmbedModel   = "KAIWA_EMBED_MODEL"
	EnvChatModel    = "KAIWA_CHAT_MODEL"
	EnvEmbedDim     = "KAIWA_EMBED_DIM"
	EnvHistoryTurns = "KAIWA_HISTORY_TURNS"
	EnvDataDir      = "KAIWA_DATA_DIR"
	EnvPort         = "KAIWA_PORT"
	EnvProvider     = "KAIWA_PROVIDER"
	EnvBaseURL      = "OPENAI_BASE_URL"
)

// ApplyEnv overrides cfg with values found by lookup (os.LookupEnv in production).
// Malformed numbers are configuration errors.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEmbedModel); ok && v != "" {
		cfg.Embedding.Model = v
	}
	if v, ok := lookup(EnvChatModel); ok && v != "" {
		cfg.Chat.Model = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.Storage.DataDir = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v, ok := lookup(EnvProvider); ok && v != "" {
		cfg.Embedding.Provider = v
		cfg.Chat.Provider = v
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvEmbedDim, &cfg.Embedding.Dimensions},
		{EnvHistoryTurns, &cfg.Chat.HistoryTurns},
		{EnvPort, &cfg.Server.Port},
	}
	for _, iv := range ints {
		v, ok := lookup(iv.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return models.NewError(models.ErrConfiguration, "apply env", fmt.Errorf("%s: %w", iv.name, err))
		}
		*iv.dst = n
	}
	return nil
}
