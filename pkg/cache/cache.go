// Package cache is a TTL response cache shared by the upstream clients.
// One Cache is built per process and handed to whoever needs it.
package cache

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/maypok86/otter/v2"
)

type entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache maps string keys to values that expire ttl after being written
type Cache[V any] struct {
	name   string
	cache  *otter.Cache[string, entry[V]]
	ttl    time.Duration
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// New creates a cache holding at most maxSize entries for ttl each
func New[V any](name string, ttl time.Duration, maxSize int, logger *slog.Logger) *Cache[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[V]{
		name: name,
		cache: otter.Must(&otter.Options[string, entry[V]]{
			MaximumSize:      maxSize,
			ExpiryCalculator: otter.ExpiryWriting[string, entry[V]](ttl),
		}),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the cached value for key, if present and not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	e, found := c.cache.GetIfPresent(key)
	if !found || c.now().After(e.ExpiresAt) {
		if found {
			c.cache.Invalidate(key)
		}
		metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
		var zero V
		return zero, false
	}
	metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
	return e.Value, true
}

// Set stores value under key for the cache TTL
func (c *Cache[V]) Set(key string, value V) {
	c.cache.Set(key, entry[V]{Value: value, ExpiresAt: c.now().Add(c.ttl)})
	c.logger.Debug("cache set", "cache", c.name, "key", key)
}

// Invalidate drops key from the cache
func (c *Cache[V]) Invalidate(key string) {
	c.cache.Invalidate(key)
}

// Len returns the approximate number of entries
func (c *Cache[V]) Len() int {
	return c.cache.EstimatedSize()
}

// Save writes the unexpired entries to path as a gob snapshot
func (c *Cache[V]) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	entries := make(map[string]entry[V])
	now := c.now()
	for key, e := range c.cache.All() {
		if now.Before(e.ExpiresAt) {
			entries[key] = e
		}
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Info("cache saved to disk", "cache", c.name, "entries", len(entries), "path", path)
	return nil
}

// Load restores a snapshot written by Save, skipping expired entries.
// A missing file is not an error.
func (c *Cache[V]) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer file.Close()

	var entries map[string]entry[V]
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := c.now()
	valid := 0
	for key, e := range entries {
		if now.Before(e.ExpiresAt) {
			c.cache.Set(key, e)
			valid++
		}
	}
	c.logger.Info("cache loaded from disk", "cache", c.name, "total_entries", len(entries), "valid_entries", valid)
	return nil
}
