// Package cache is a content-addressed store for extraction results. Entries
// are JSON documents compressed with zstd and keyed by the SHA-256 of the
// source they were extracted from.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// schemaVersion is mixed into every key. Bump it when the cached types
// change shape.
const schemaVersion = "ruledoc-extract-v1"

// Cache stores entries below Dir.
type Cache struct {
	Dir string
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Key returns the cache key for src.
func Key(src []byte) string {
	h := sha256.New()
	h.Write([]byte(schemaVersion))
	h.Write([]byte{0})
	h.Write(src)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// path returns the sharded file path for a key: <dir>/<first2>/<rest>.json.zst
func (c *Cache) path(key string) string {
	return filepath.Join(c.Dir, key[:2], key[2:]+".json.zst")
}

// Get decodes the entry for key into v. It reports false when there is no
// entry.
func (c *Cache) Get(key string, v any) (bool, error) {
	if len(key) < 3 {
		return false, fmt.Errorf("invalid cache key %q", key)
	}
	f, err := os.Open(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("decompressing cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return true, nil
}

// Put stores v under key. If the entry already exists, this is a no-op.
func (c *Cache) Put(key string, v any) error {
	if len(key) < 3 {
		return fmt.Errorf("invalid cache key %q", key)
	}
	p := c.path(key)
	if _, err := os.Stat(p); err == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("compressing cache entry: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("moving cache file into place: %w", err)
	}
	return nil
}

// Clear removes every entry and the emptied shard directories. Files the
// cache did not write are left alone. It returns the number of entries
// removed.
func (c *Cache) Clear() (int, error) {
	shards, err := os.ReadDir(c.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, shard := range shards {
		if !shard.IsDir() || !isShard(shard.Name()) {
			continue
		}
		dir := filepath.Join(c.Dir, shard.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("reading cache shard %s: %w", shard.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json.zst") {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return removed, fmt.Errorf("removing cache entry: %w", err)
			}
			removed++
		}
		// Only succeeds once the shard is empty.
		os.Remove(dir)
	}
	return removed, nil
}

func isShard(name string) bool {
	if len(name) != 2 {
		return false
	}
	for _, r := range name {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
