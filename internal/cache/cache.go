// Package cache provides a small file-backed JSON cache for directory
// listings that are expensive to refetch.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Cache stores JSON blobs under a directory, one file per key. Entries
// expire by file modification time.
type Cache struct {
	dir string
	ttl time.Duration
}

// New creates a Cache rooted at dir. Entries older than ttl are treated as
// missing; a zero ttl means entries never expire.
func New(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl}
}

// Get loads the entry for key into out. Returns false when the entry is
// missing or stale; a stale entry is not an error.
func (c *Cache) Get(key string, out any) (bool, error) {
	path := filepath.Join(c.dir, key)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat cache entry %s: %w", key, err)
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Put stores v as the entry for key, creating the cache directory if
// needed.
func (c *Cache) Put(key string, v any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}
