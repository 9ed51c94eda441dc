package fetch

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskCache is a flat directory of image files keyed by cache key. The
// fetcher only appends and reads; clearing the cache is an external action.
type DiskCache struct {
	root string
}

// NewDiskCache opens (creating if needed) a cache directory.
func NewDiskCache(root string) (*DiskCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskCache{root: root}, nil
}

// Root returns the cache directory.
func (c *DiskCache) Root() string { return c.root }

// Path returns the on-disk location for a key.
func (c *DiskCache) Path(key string) string {
	return filepath.Join(c.root, key)
}

// Get reads the cached bytes for key. The bool reports whether the key was
// present; an absent key is not an error.
func (c *DiskCache) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return data, true, nil
}

// Put stores bytes under key. Writes go through a temp file and rename, so a
// concurrent write to the same key cannot leave a corrupt file and
// overwriting an existing key is not an error.
func (c *DiskCache) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.root, key+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}
