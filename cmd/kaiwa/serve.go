package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/kaiwa/internal/server"
	"github.com/hyperjump/kaiwa/internal/watcher"
	"github.com/hyperjump/kaiwa/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Loads the vector store checkpoint, starts the HTTP API, and ingests text files
dropped into the configured watch directories.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("chat_provider", cfg.Chat.Provider),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize components", zap.Error(err))
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	srv := server.NewServer(components.Engine, &cfg.Server, logger)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		inbox := watcher.NewInbox(components.Engine, logger)
		if n := inbox.Seed(components.Retriever.Metadata()); n > 0 {
			logger.Info("inbox seeded from stored documents", zap.Int("files", n))
		}
		w := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions, inbox.Handle, watchOpts...)
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				return fmt.Errorf("watcher failed: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
