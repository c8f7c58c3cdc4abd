package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func turn(role models.Role, content string) models.Turn {
	return models.Turn{Role: role, Content: content}
}

func TestStore_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a, err := s.GetOrCreate(ctx, "")
			require.NoError(t, err)
			b, err := s.GetOrCreate(ctx, "")
			require.NoError(t, err)
			assert.NotEmpty(t, a)
			assert.NotEqual(t, a, b, "minted ids must be unique")

			got, err := s.GetOrCreate(ctx, "caller-supplied")
			require.NoError(t, err)
			assert.Equal(t, "caller-supplied", got)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			hist, err := s.History(ctx, a)
			require.NoError(t, err)
			assert.Empty(t, hist)
		})
	}
}

func TestStore_RecentWindow(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id, _ := s.GetOrCreate(ctx, "")
			for i := 0; i < 10; i++ {
				require.NoError(t, s.Append(ctx, id, turn(models.RoleUser, fmt.Sprintf("q%d", i))))
			}
			recent, err := s.Recent(ctx, id, 3)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			assert.Equal(t, "q7", recent[0].Content)
			assert.Equal(t, "q9", recent[2].Content)

			all, err := s.Recent(ctx, id, 50)
			require.NoError(t, err)
			assert.Len(t, all, 10)
			assert.Equal(t, "q0", all[0].Content)

			none, err := s.Recent(ctx, id, 0)
			require.NoError(t, err)
			assert.Empty(t, none)

			unknown, err := s.Recent(ctx, "nobody", 5)
			require.NoError(t, err)
			assert.Empty(t, unknown)
		})
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := s.GetOrCreate(ctx, "a")
			b, _ := s.GetOrCreate(ctx, "b")
			require.NoError(t, s.Append(ctx, a, turn(models.RoleUser, "secret of a")))
			require.NoError(t, s.Append(ctx, b, turn(models.RoleUser, "hello from b")))

			recent, err := s.Recent(ctx, b, 10)
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.Equal(t, "hello from b", recent[0].Content)
		})
	}
}

func TestStore_HistoryUnknown(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.History(ctx, "missing")
			assert.True(t, errors.Is(err, models.ErrSessionNotFound), "got %v", err)
		})
	}
}

func TestStore_AppendRequiresID(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Append(ctx, "", turn(models.RoleUser, "x")))
		})
	}
}

func TestStore_ConcurrentAppendsSameSession(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id, _ := s.GetOrCreate(ctx, "shared")
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 10; i++ {
						assert.NoError(t, s.Append(ctx, id, turn(models.RoleUser, fmt.Sprintf("w%d-%d", w, i))))
					}
				}(w)
			}
			wg.Wait()
			hist, err := s.History(ctx, id)
			require.NoError(t, err)
			assert.Len(t, hist, 80)

			// Each writer's own turns stay in order.
			last := map[byte]int{}
			for _, tr := range hist {
				var w, i int
				_, err := fmt.Sscanf(tr.Content, "w%d-%d", &w, &i)
				require.NoError(t, err)
				prev, seen := last[byte(w)]
				if seen {
					assert.Greater(t, i, prev)
				}
				last[byte(w)] = i
			}
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	id, _ := s.GetOrCreate(ctx, "")
	require.NoError(t, s.Append(ctx, id, turn(models.RoleUser, "hi")))
	require.NoError(t, s.Append(ctx, id, turn(models.RoleAssistant, "hello")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	hist, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, models.RoleAssistant, hist[1].Role)
}
