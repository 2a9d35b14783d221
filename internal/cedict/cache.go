package cedict

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache memoizes the parsed dictionary on disk so repeated startups skip
// re-parsing a large source file. Snapshots are keyed on a content hash of
// the source, so replacing the source file invalidates the cache naturally.
type Cache struct {
	rootDir string
}

// NewCache creates a cache rooted at cacheDirectory. An empty directory
// disables caching.
func NewCache(cacheDirectory string) *Cache {
	return &Cache{rootDir: cacheDirectory}
}

func (c *Cache) filePath(sourceHash string) string {
	return filepath.Join(c.rootDir, "cedict-"+sourceHash+".msgpack")
}

// LoadOrBuild returns the parsed entries for sourcePath, reading them from a
// cache snapshot when one exists for the source's current content. A missing
// or unreadable snapshot falls back to parsing; failing to write a fresh
// snapshot is logged, not fatal.
func (c *Cache) LoadOrBuild(sourcePath string) ([]Entry, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", sourcePath, err)
	}

	if c.rootDir == "" {
		return Parse(bytes.NewReader(source))
	}

	sum := sha256.Sum256(source)
	cachePath := c.filePath(hex.EncodeToString(sum[:8]))

	if snapshot, err := os.ReadFile(cachePath); err == nil {
		var entries []Entry
		if err := msgpack.Unmarshal(snapshot, &entries); err == nil {
			return entries, nil
		}
		slog.Warn("discarding unreadable dictionary cache snapshot", "path", cachePath)
	}

	entries, err := Parse(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("cedict.Parse() > %w", err)
	}

	snapshot, err := msgpack.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("msgpack.Marshal() > %w", err)
	}
	if err := os.MkdirAll(c.rootDir, 0o755); err != nil {
		slog.Warn("could not create dictionary cache directory", "dir", c.rootDir, "error", err)
		return entries, nil
	}
	if err := os.WriteFile(cachePath, snapshot, 0o644); err != nil {
		slog.Warn("could not write dictionary cache snapshot", "path", cachePath, "error", err)
	}
	return entries, nil
}

// Load builds a ready-to-use Dictionary from a source file and an
// acquisition word-list directory, going through the cache for the parse.
func Load(cache *Cache, sourcePath, tierListDir string) (*Dictionary, error) {
	entries, err := cache.LoadOrBuild(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("cache.LoadOrBuild() > %w", err)
	}
	tiers, err := LoadTierLists(tierListDir)
	if err != nil {
		return nil, fmt.Errorf("cedict.LoadTierLists() > %w", err)
	}
	return New(entries, tiers), nil
}
