package main

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kaiwa/internal/cli"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/spf13/cobra"
)

var (
	askSession string
	askTopK    int
	askNoTools bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Sends one question to a running server. Pass --session to continue a
conversation; the session id is printed with every answer. With --local the
question is answered in-process; sessions then only persist when
storage.sessions_database_path is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", -1, "snippets to retrieve (default: server setting)")
	askCmd.Flags().BoolVar(&askNoTools, "no-context", false, "answer from chat history only")
	askCmd.Flags().BoolVar(&localMode, "local", false, "answer in-process instead of through the server")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, err := outputFlag()
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	b, closeBackend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	resp, err := b.Ask(cmd.Context(), buildAskRequest(strings.Join(args, " ")))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return cli.WriteAnswer(cmd.OutOrStdout(), resp, format)
}

func buildAskRequest(query string) *models.AskRequest {
	req := &models.AskRequest{Query: query}
	if askSession != "" {
		req.SessionID = &askSession
	}
	if askTopK >= 0 {
		k := askTopK
		req.TopK = &k
	}
	if askNoTools {
		allow := false
		req.AllowTools = &allow
	}
	return req
}
