// Package llm provides chat-completion providers.
package llm

import (
	"context"

	"github.com/hyperjump/kaiwa/internal/models"
)

// Completer returns a generated reply for an ordered list of role-tagged messages.
type Completer interface {
	Complete(ctx context.Context, messages []models.Turn) (string, error)
}
