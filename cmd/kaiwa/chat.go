package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kaiwa/internal/cli"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	chatConversation string
	chatList         bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with a saved transcript",
	Long: `Starts an interactive conversation against a running server. Each
conversation is saved as a transcript file whose name is also the session id,
so resuming a transcript continues the same server session while it is alive.

Type /history to print the transcript and /exit to leave. Asking about your
"previous messages" is answered from the transcript without calling the server.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "transcript to resume (default: new)")
	chatCmd.Flags().BoolVarP(&chatList, "list", "l", false, "list saved transcripts and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := transcript.NewStore(cfg.Transcripts.Dir)
	if err != nil {
		return err
	}
	if chatList {
		return listTranscripts(cmd, store)
	}

	name := chatConversation
	if name == "" {
		name = transcript.NewName(time.Now())
	} else if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	turns, err := store.Load(name)
	if err != nil {
		return err
	}
	c := newClient(cfg)
	cmd.Printf("Conversation %s (%d earlier messages). /exit to quit.\n", name, len(turns))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		switch query {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			cli.WriteHistory(cmd.OutOrStdout(), turns)
			continue
		}

		var answer string
		if transcript.IsHistoryRecall(query) {
			answer = transcript.RecallSummary(turns)
		} else {
			sid := name
			resp, err := c.Ask(cmd.Context(), &models.AskRequest{Query: query, SessionID: &sid})
			if err != nil {
				answer = fmt.Sprintf("API Error: %v", err)
			} else {
				answer = resp.Answer
			}
		}
		cmd.Println(answer)

		turns = append(turns,
			models.Turn{Role: models.RoleUser, Content: query},
			models.Turn{Role: models.RoleAssistant, Content: answer},
		)
		if err := store.Save(name, turns); err != nil {
			cmd.PrintErrf("failed to save transcript: %v\n", err)
		}
	}
	return scanner.Err()
}

func listTranscripts(cmd *cobra.Command, store *transcript.Store) error {
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("No saved conversations.")
		return nil
	}
	for _, name := range names {
		turns, err := store.Load(name)
		if err != nil {
			cmd.Printf("%s  (unreadable: %v)\n", name, err)
			continue
		}
		preview := ""
		if len(turns) > 0 {
			preview = cli.TruncateWords(turns[0].Content, 8)
		}
		cmd.Printf("%s  %3d messages  %s\n", strings.TrimSuffix(name, ".json"), len(turns), preview)
	}
	return nil
}
