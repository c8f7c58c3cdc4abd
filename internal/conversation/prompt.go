package conversation

import (
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
)

const (
	contextHeader    = "Context:\n"
	contextSeparator = "\n---\n"
)

// BuildMessages assembles a prompt: the system instruction, then history in order, then,
// when there are snippets, one trailing system message holding all of them in rank order.
func BuildMessages(systemPrompt string, history []models.Turn, snippets []string) []models.Turn {
	messages := make([]models.Turn, 0, len(history)+2)
	messages = append(messages, models.Turn{Role: models.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	if len(snippets) > 0 {
		messages = append(messages, models.Turn{
			Role:    models.RoleSystem,
			Content: contextHeader + strings.Join(snippets, contextSeparator),
		})
	}
	return messages
}
