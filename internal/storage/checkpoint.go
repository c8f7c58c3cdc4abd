// Package storage persists the vector index and document store as one logical checkpoint.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/kaiwa/internal/docstore"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/vector"
	"go.uber.org/zap"
)

const (
	DefaultIndexFile    = "index.bin"
	DefaultMetadataFile = "metadata.json"
)

// Checkpoint names the two artifacts (binary index blob + JSON record list) that
// together hold the retrieval state. They are always written and read as a pair.
type Checkpoint struct {
	Dir          string
	IndexFile    string
	MetadataFile string
	logger       *zap.Logger
}

// CheckpointOption configures a Checkpoint.
type CheckpointOption func(*Checkpoint)

// WithLogger sets a logger for load warnings.
func WithLogger(l *zap.Logger) CheckpointOption {
	return func(c *Checkpoint) { c.logger = l }
}

// NewCheckpoint returns a checkpoint rooted at dir. Empty file names use the defaults.
func NewCheckpoint(dir, indexFile, metadataFile string, opts ...CheckpointOption) *Checkpoint {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	if metadataFile == "" {
		metadataFile = DefaultMetadataFile
	}
	c := &Checkpoint{
		Dir:          dir,
		IndexFile:    indexFile,
		MetadataFile: metadataFile,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IndexPath returns the full path of the index blob.
func (c *Checkpoint) IndexPath() string {
	return filepath.Join(c.Dir, c.IndexFile)
}

// MetadataPath returns the full path of the record list.
func (c *Checkpoint) MetadataPath() string {
	return filepath.Join(c.Dir, c.MetadataFile)
}

// Load reads both artifacts. When neither exists it returns an empty index of dimensions
// and an empty store. When only one exists it is ignored with a warning, since a lone half
// cannot be aligned; it is overwritten by the next Save.
// A dimension or count mismatch is returned as a configuration error.
func (c *Checkpoint) Load(dimensions int) (*vector.FlatIndex, *docstore.Store, error) {
	indexExists, err := fileExists(c.IndexPath())
	if err != nil {
		return nil, nil, models.NewError(models.ErrPersistence, "load checkpoint", err)
	}
	metaExists, err := fileExists(c.MetadataPath())
	if err != nil {
		return nil, nil, models.NewError(models.ErrPersistence, "load checkpoint", err)
	}
	if !indexExists || !metaExists {
		if indexExists || metaExists {
			c.logger.Warn("checkpoint incomplete, starting empty",
				zap.String("index_path", c.IndexPath()),
				zap.Bool("index_exists", indexExists),
				zap.String("metadata_path", c.MetadataPath()),
				zap.Bool("metadata_exists", metaExists),
			)
		}
		idx, err := vector.NewFlatIndex(dimensions)
		if err != nil {
			return nil, nil, models.NewError(models.ErrConfiguration, "load checkpoint", err)
		}
		return idx, docstore.New(), nil
	}

	idx, err := c.readIndex(dimensions)
	if err != nil {
		return nil, nil, err
	}
	store, err := c.readMetadata()
	if err != nil {
		return nil, nil, err
	}
	if idx.Len() != store.Len() {
		return nil, nil, models.NewError(models.ErrConfiguration, "load checkpoint",
			fmt.Errorf("checkpoint out of alignment: %d vectors, %d records", idx.Len(), store.Len()))
	}
	c.logger.Info("checkpoint loaded",
		zap.String("dir", c.Dir),
		zap.Int("documents", store.Len()),
		zap.Int("dimensions", idx.Dimensions()),
	)
	return idx, store, nil
}

func (c *Checkpoint) readIndex(dimensions int) (*vector.FlatIndex, error) {
	f, err := os.Open(c.IndexPath())
	if err != nil {
		return nil, models.NewError(models.ErrPersistence, "open index", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, models.NewError(models.ErrPersistence, "stat index", err)
	}
	idx, err := vector.ReadIndexSized(f, info.Size(), dimensions)
	if errors.Is(err, vector.ErrDimensionMismatch) {
		return nil, models.NewError(models.ErrConfiguration, "read index", err)
	}
	if err != nil {
		return nil, models.NewError(models.ErrPersistence, "read index", err)
	}
	return idx, nil
}

func (c *Checkpoint) readMetadata() (*docstore.Store, error) {
	f, err := os.Open(c.MetadataPath())
	if err != nil {
		return nil, models.NewError(models.ErrPersistence, "open metadata", err)
	}
	defer f.Close()
	store, err := docstore.ReadJSON(f)
	if err != nil {
		return nil, models.NewError(models.ErrPersistence, "read metadata", err)
	}
	return store, nil
}

// Save writes both artifacts. Each is written to a temp file in Dir, synced, and then
// renamed over its final name, so a reader never sees a truncated file.
// Both temps are fully written before either rename.
func (c *Checkpoint) Save(idx *vector.FlatIndex, store *docstore.Store) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return models.NewError(models.ErrPersistence, "save checkpoint", fmt.Errorf("create dir: %w", err))
	}
	indexTmp, err := writeTemp(c.Dir, c.IndexFile, func(w io.Writer) error {
		_, err := idx.WriteTo(w)
		return err
	})
	if err != nil {
		return models.NewError(models.ErrPersistence, "save index", err)
	}
	metaTmp, err := writeTemp(c.Dir, c.MetadataFile, store.WriteJSON)
	if err != nil {
		_ = os.Remove(indexTmp)
		return models.NewError(models.ErrPersistence, "save metadata", err)
	}
	if err := os.Rename(indexTmp, c.IndexPath()); err != nil {
		_ = os.Remove(indexTmp)
		_ = os.Remove(metaTmp)
		return models.NewError(models.ErrPersistence, "save index", err)
	}
	if err := os.Rename(metaTmp, c.MetadataPath()); err != nil {
		_ = os.Remove(metaTmp)
		return models.NewError(models.ErrPersistence, "save metadata", err)
	}
	return nil
}

func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close: %w", err)
	}
	return tmp, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}
