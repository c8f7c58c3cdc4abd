// Package config provides configuration loading and structs for the kaiwa server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by embedding.provider and chat.provider.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chat        ChatConfig        `yaml:"chat"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Watch       WatchConfig       `yaml:"watch"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// StorageConfig holds the checkpoint location and the optional session database.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	IndexFile    string `yaml:"index_file"`
	MetadataFile string `yaml:"metadata_file"`
	// SessionsDatabasePath enables the SQLite session store when set.
	// Empty keeps sessions in memory for the process lifetime.
	SessionsDatabasePath string `yaml:"sessions_database_path"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// ChatConfig selects the completion provider and prompt policy.
type ChatConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	HistoryTurns int    `yaml:"history_turns"`
	DefaultTopK  int    `yaml:"default_top_k"`
}

// OpenAIConfig holds credentials and client settings shared by both OpenAI providers.
type OpenAIConfig struct {
	APIKey            string  `yaml:"-"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// WatchConfig holds ingest inbox settings. Files created in these directories are ingested.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// TranscriptsConfig holds where the chat front-end keeps conversation transcripts.
type TranscriptsConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads and parses the config file at path, applies environment overrides and defaults,
// and expands paths. A missing file yields the defaults, with relative paths resolved against
// the current directory. Load does not validate; call Validate before building providers.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := filepath.Dir(path)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			configDir = cwd
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv(cfg.OpenAI.APIKeyEnv)
	}

	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	if cfg.Storage.SessionsDatabasePath != "" {
		cfg.Storage.SessionsDatabasePath = expandPath(cfg.Storage.SessionsDatabasePath, configDir)
	}
	cfg.Transcripts.Dir = expandPath(cfg.Transcripts.Dir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate reports configuration that makes startup impossible. Errors match
// models.ErrConfiguration.
func (c *Config) Validate() error {
	var problems []string
	for _, p := range []string{c.Embedding.Provider, c.Chat.Provider} {
		if p != ProviderOpenAI && p != ProviderMock {
			problems = append(problems, fmt.Sprintf("unknown provider %q (supported: openai, mock)", p))
		}
	}
	if c.usesOpenAI() && c.OpenAI.APIKey == "" {
		problems = append(problems, fmt.Sprintf("missing API credential: set %s in .env or environment variables", c.OpenAI.APIKeyEnv))
	}
	if c.Embedding.Dimensions <= 0 {
		problems = append(problems, fmt.Sprintf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Chat.HistoryTurns <= 0 {
		problems = append(problems, fmt.Sprintf("chat.history_turns must be positive, got %d", c.Chat.HistoryTurns))
	}
	if c.Chat.DefaultTopK <= 0 {
		problems = append(problems, fmt.Sprintf("chat.default_top_k must be positive, got %d", c.Chat.DefaultTopK))
	}
	if len(problems) > 0 {
		return models.NewError(models.ErrConfiguration, "validate config", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

func (c *Config) usesOpenAI() bool {
	return c.Embedding.Provider == ProviderOpenAI || c.Chat.Provider == ProviderOpenAI
}

// Save writes the config to path. The API key is never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
