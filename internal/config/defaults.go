package config

// DefaultSystemPrompt is the fixed instruction placed first in every prompt.
const DefaultSystemPrompt = "You are a helpful Fintech assistant. Use context + chat history."

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5050
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data/store"
	}
	if cfg.Storage.IndexFile == "" {
		cfg.Storage.IndexFile = "index.bin"
	}
	if cfg.Storage.MetadataFile == "" {
		cfg.Storage.MetadataFile = "metadata.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = ProviderOpenAI
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-4o-mini"
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Chat.HistoryTurns == 0 {
		cfg.Chat.HistoryTurns = 8
	}
	if cfg.Chat.DefaultTopK == 0 {
		cfg.Chat.DefaultTopK = 4
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 30
	}
	if cfg.OpenAI.RequestsPerSecond == 0 {
		cfg.OpenAI.RequestsPerSecond = 5
	}
	if cfg.OpenAI.Burst == 0 {
		cfg.OpenAI.Burst = 10
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
	if cfg.Transcripts.Dir == "" {
		cfg.Transcripts.Dir = "./data/conversations"
	}
}
