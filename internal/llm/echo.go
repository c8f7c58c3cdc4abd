package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
)

// EchoCompleter is an offline completer. It answers with the last user message and,
// when a context message is present, the first context line. Useful for demos and tests.
type EchoCompleter struct{}

// Complete builds a deterministic reply from messages.
func (EchoCompleter) Complete(ctx context.Context, messages []models.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var question, snippet string
	for _, m := range messages {
		switch {
		case m.Role == models.RoleUser:
			question = m.Content
		case m.Role == models.RoleSystem && strings.HasPrefix(m.Content, "Context:\n"):
			snippet = strings.SplitN(strings.TrimPrefix(m.Content, "Context:\n"), "\n", 2)[0]
		}
	}
	if snippet == "" {
		return fmt.Sprintf("You asked: %s", question), nil
	}
	return fmt.Sprintf("You asked: %s\nFrom the knowledge base: %s", question, snippet), nil
}
