package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kaiwa/internal/models"
)

// MemoryStore keeps sessions for the process lifetime. History grows without bound;
// only prompt assembly applies a window.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu    sync.Mutex
	turns []models.Turn
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (m *MemoryStore) lookup(id string) (*memorySession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *MemoryStore) getOrCreate(id string) *memorySession {
	if s, ok := m.lookup(id); ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &memorySession{}
	m.sessions[id] = s
	return s
}

// GetOrCreate implements Store.
func (m *MemoryStore) GetOrCreate(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = NewID()
	}
	m.getOrCreate(id)
	return id, nil
}

// Append implements Store. Appending to an unseen id creates the session.
func (m *MemoryStore) Append(ctx context.Context, id string, turn models.Turn) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	s := m.getOrCreate(id)
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
	return nil
}

// Recent implements Store. An unknown id has no turns.
func (m *MemoryStore) Recent(ctx context.Context, id string, window int) ([]models.Turn, error) {
	s, ok := m.lookup(id)
	if !ok {
		return []models.Turn{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.turns, window), nil
}

// History implements Store.
func (m *MemoryStore) History(ctx context.Context, id string) ([]models.Turn, error) {
	s, ok := m.lookup(id)
	if !ok {
		return nil, models.NewError(models.ErrSessionNotFound, "history", fmt.Errorf("id %q", id))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
