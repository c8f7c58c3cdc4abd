package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	ingestContent string
	ingestTitle   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the knowledge base",
	Long: `Sends documents to a running server, or with --local writes them straight
into the configured data directory. Each file becomes one document with its name
as title; --content ingests a literal string instead.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestContent, "content", "", "ingest this text instead of files")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "title metadata for --content")
	ingestCmd.Flags().BoolVar(&localMode, "local", false, "ingest directly instead of through the server")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestContent == "" && len(args) == 0 {
		return errors.New("nothing to ingest: pass files or --content")
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, closeBackend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	ctx := cmd.Context()

	if strings.TrimSpace(ingestContent) != "" {
		meta := map[string]interface{}{}
		if ingestTitle != "" {
			meta["title"] = ingestTitle
		}
		resp, err := c.Ingest(ctx, &models.IngestRequest{Content: ingestContent, Metadata: meta})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Ingested text (%d documents total)\n", resp.TotalDocs)
	}

	inbox := watcher.NewInbox(c, nil)
	var failed int
	for _, path := range args {
		ok, err := inbox.IngestFile(ctx, path)
		switch {
		case err != nil:
			failed++
			cmd.PrintErrf("%s: %v\n", path, err)
		case ok:
			cmd.Printf("Ingested %s\n", path)
		default:
			cmd.Printf("Skipped %s (empty)\n", path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
