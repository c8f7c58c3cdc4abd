package storage

import (
	"errors"
	"io/fs"
	"os"
)

// DiskUsage returns the bytes held by the checkpoint artifacts. An artifact that has
// not been written yet counts as zero.
func (c *Checkpoint) DiskUsage() (int64, error) {
	var total int64
	for _, p := range []string{c.IndexPath(), c.MetadataPath()} {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
