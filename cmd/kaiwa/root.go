package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/kaiwa/internal/cli"
	"github.com/hyperjump/kaiwa/internal/client"
	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigPath = "/usr/local/etc/kaiwa/config.yaml"

var (
	configPath   string
	debugFlag    bool
	serverURL    string
	outputFormat string
	localMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "kaiwa",
	Short: "Retrieval-augmented conversation server",
	Long: `kaiwa keeps a vector index of ingested documents and answers questions
with an LLM, using retrieved snippets and per-session chat history as context.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default: from config host and port)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory so that running from a project dir uses that
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newClient builds an API client from --server, or from the config's listen address.
func newClient(cfg *config.Config) *client.Client {
	url := serverURL
	if url == "" && cfg != nil {
		url = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	return client.New(url, nil)
}

func outputFlag() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(outputFormat)
}

// backend is what ingest and ask need. Both the HTTP client and the engine satisfy it.
type backend interface {
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error)
	Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error)
}

// openBackend returns the server client, or with --local an engine over the configured
// data directory. Do not use --local while a server owns the same checkpoint.
func openBackend(cfg *config.Config) (backend, func(), error) {
	if !localMode {
		return newClient(cfg), func() {}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := zap.NewNop()
	if cfg.Debug || debugFlag {
		l, err := utils.NewLogger(true)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return components.Engine, func() {
		components.Close()
		_ = logger.Sync()
	}, nil
}
