// Package session stores conversation turns keyed by session id.
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyperjump/kaiwa/internal/models"
)

// Store maps session ids to ordered conversation turns. Appends and reads for one id
// are serialized; different ids are independent.
type Store interface {
	// GetOrCreate returns id when non-empty (creating the session if unseen),
	// or mints a new unique id.
	GetOrCreate(ctx context.Context, id string) (string, error)
	// Append adds a turn to the end of the session's history.
	Append(ctx context.Context, id string, turn models.Turn) error
	// Recent returns the last window turns in conversation order.
	Recent(ctx context.Context, id string, window int) ([]models.Turn, error)
	// History returns every turn; models.ErrSessionNotFound when id is unknown.
	History(ctx context.Context, id string) ([]models.Turn, error)
	// Count returns the number of sessions.
	Count(ctx context.Context) (int, error)
	Close() error
}

// NewID mints a random session identifier.
func NewID() string {
	return uuid.NewString()
}

func tail(turns []models.Turn, window int) []models.Turn {
	if window <= 0 {
		return []models.Turn{}
	}
	if window > len(turns) {
		window = len(turns)
	}
	out := make([]models.Turn, window)
	copy(out, turns[len(turns)-window:])
	return out
}
