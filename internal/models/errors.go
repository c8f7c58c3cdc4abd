package models

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is(err, ErrEmbedding) etc. to classify a failure.
var (
	// ErrConfiguration is fatal at startup: missing credential, dimension mismatch.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmbedding means the embedding provider call failed.
	ErrEmbedding = errors.New("embedding error")
	// ErrCompletion means the completion provider call failed.
	ErrCompletion = errors.New("completion error")
	// ErrPersistence means the index checkpoint could not be written or read.
	// In-memory state may be ahead of disk afterwards.
	ErrPersistence = errors.New("persistence error")
	// ErrInvalidRequest means the caller sent a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSessionNotFound means a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
)

// Error carries a kind sentinel, the failing operation, and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// NewError wraps err with kind and op.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Is matches the kind sentinel, so errors.Is(err, ErrEmbedding) works through wrapping.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}
