package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/kaiwa/internal/models"
	"go.uber.org/zap"
)

// Ingester accepts documents. The conversation engine and the HTTP client both satisfy it.
type Ingester interface {
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error)
}

type fileState struct {
	size    int64
	modTime string
}

func stateOf(info os.FileInfo) fileState {
	return fileState{size: info.Size(), modTime: info.ModTime().UTC().Format(time.RFC3339Nano)}
}

// Inbox reads text files and ingests them. A file is ingested again only when its
// size or modification time changes. Ingests of one path never overlap.
type Inbox struct {
	sink     Ingester
	maxBytes int64
	logger   *zap.Logger

	mu       sync.Mutex
	seen     map[string]fileState
	inflight map[string]chan struct{}
}

// DefaultMaxFileBytes is the largest file an Inbox will read.
const DefaultMaxFileBytes = 4 << 20

// NewInbox creates an inbox feeding sink.
func NewInbox(sink Ingester, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{
		sink:     sink,
		maxBytes: DefaultMaxFileBytes,
		logger:   logger,
		seen:     make(map[string]fileState),
		inflight: make(map[string]chan struct{}),
	}
}

// Seed marks files as already ingested from the metadata of stored documents, so a
// restart does not append them again. Entries without file metadata are ignored.
// It returns the number of files recorded.
func (b *Inbox) Seed(metadata []map[string]interface{}) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range metadata {
		path, ok := m["source_path"].(string)
		if !ok || path == "" {
			continue
		}
		mtime, ok := m["source_mtime"].(string)
		if !ok {
			continue
		}
		var size int64
		switch v := m["source_size"].(type) {
		case int64:
			size = v
		case int:
			size = int64(v)
		case float64:
			size = int64(v)
		default:
			continue
		}
		b.seen[path] = fileState{size: size, modTime: mtime}
		n++
	}
	return n
}

// IngestFile ingests path with metadata from FileMetadata. It reports false when
// the file was skipped as unchanged or blank.
func (b *Inbox) IngestFile(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", abs)
	}
	if info.Size() > b.maxBytes {
		return false, fmt.Errorf("%s is %d bytes, limit is %d", abs, info.Size(), b.maxBytes)
	}
	state := stateOf(info)

	done, err := b.claim(ctx, abs, state)
	if err != nil || done == nil {
		return false, err
	}
	defer done()

	data, err := os.ReadFile(abs)
	if err != nil {
		return false, err
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		b.logger.Debug("inbox skipping blank file", zap.String("path", abs))
		return false, nil
	}
	resp, err := b.sink.Ingest(ctx, &models.IngestRequest{
		Content:  content,
		Metadata: FileMetadata(abs, info),
	})
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	b.seen[abs] = state
	b.mu.Unlock()
	b.logger.Info("ingested file", zap.String("path", abs), zap.Int("total_docs", resp.TotalDocs))
	return true, nil
}

// claim waits for any in-flight ingest of abs, then marks it in flight. It returns a
// nil release func when state was already ingested.
func (b *Inbox) claim(ctx context.Context, abs string, state fileState) (func(), error) {
	for {
		b.mu.Lock()
		if prev, ok := b.seen[abs]; ok && prev == state {
			b.mu.Unlock()
			b.logger.Debug("inbox skipping unchanged file", zap.String("path", abs))
			return nil, nil
		}
		busy, ok := b.inflight[abs]
		if !ok {
			ch := make(chan struct{})
			b.inflight[abs] = ch
			b.mu.Unlock()
			return func() {
				b.mu.Lock()
				delete(b.inflight, abs)
				b.mu.Unlock()
				close(ch)
			}, nil
		}
		b.mu.Unlock()
		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Handle is a Watcher callback. Errors are logged.
func (b *Inbox) Handle(ctx context.Context, path string) {
	if _, err := b.IngestFile(ctx, path); err != nil {
		b.logger.Warn("inbox ingest failed", zap.String("path", path), zap.Error(err))
	}
}

// FileMetadata is the metadata attached to a document read from path. The size and
// modification time let a later Seed recognize the file.
func FileMetadata(path string, info os.FileInfo) map[string]interface{} {
	base := filepath.Base(path)
	state := stateOf(info)
	return map[string]interface{}{
		"title":        strings.TrimSuffix(base, filepath.Ext(base)),
		"source_path":  path,
		"source_size":  state.size,
		"source_mtime": state.modTime,
	}
}
