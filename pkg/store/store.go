// Package store persists JSON artifacts as one file per key under
// <root>/<collection>/. It is a content cache, not a database: writes are
// atomic replaces, reads are best-effort, and a missing or corrupt entry is
// reported as absent rather than as an error.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Forever marks an entry as never stale once it exists.
const Forever = time.Duration(math.MaxInt64)

// Change is one committed write, delivered to watchers.
type Change[T any] struct {
	Key   string
	Value T
}

// Collection is a typed key-value bucket. The zero value is not usable; use
// NewCollection.
type Collection[T any] struct {
	dir    string
	name   string
	logger *slog.Logger

	mu       sync.Mutex
	watchers []chan Change[T]
}

// NewCollection opens (lazily) the named bucket under root.
func NewCollection[T any](root, name string) *Collection[T] {
	return &Collection[T]{
		dir:    filepath.Join(root, name),
		name:   name,
		logger: slog.With("collection", name),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Read decodes the value stored under key. ok is false when the key is
// absent or the entry cannot be decoded.
func (c *Collection[T]) Read(key string) (T, bool) {
	var value T
	raw, ok := c.ReadRaw(key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Error("corrupt entry", "key", key, "err", err)
		return value, false
	}
	return value, true
}

// ReadRaw returns the stored bytes without decoding, for handlers that relay
// a payload verbatim.
func (c *Collection[T]) ReadRaw(key string) ([]byte, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return raw, true
}

// ReadAll decodes every entry in the collection, in key order. Undecodable
// entries are skipped.
func (c *Collection[T]) ReadAll() []T {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	values := make([]T, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			continue
		}
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			c.logger.Error("corrupt entry", "key", entry.Name(), "err", err)
			continue
		}
		values = append(values, value)
	}
	return values
}

// Write serializes value under key with an atomic replace, then notifies
// watchers.
func (c *Collection[T]) Write(key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, key, err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", c.name, err)
	}
	tmp, err := os.CreateTemp(c.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("stage %s/%s: %w", c.name, key, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("stage %s/%s: %w", c.name, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("stage %s/%s: %w", c.name, key, err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s/%s: %w", c.name, key, err)
	}
	c.notify(Change[T]{Key: key, Value: value})
	return nil
}

// Exists reports whether key has a stored entry.
func (c *Collection[T]) Exists(key string) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

// IsStale reports whether key is absent or its entry is older than maxAge.
// Pass Forever for entries that never expire, 0 to force a refresh.
func (c *Collection[T]) IsStale(key string, maxAge time.Duration) bool {
	info, err := os.Stat(c.path(key))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > maxAge
}

// Watch returns a channel of committed writes. The channel is buffered and
// never blocks writers; a lagging receiver loses changes.
func (c *Collection[T]) Watch() <-chan Change[T] {
	ch := make(chan Change[T], 64)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

func (c *Collection[T]) notify(change Change[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.watchers {
		select {
		case ch <- change:
		default:
			c.logger.Warn("watcher lagging, dropping change", "key", change.Key)
		}
	}
}

func (c *Collection[T]) path(key string) string {
	return filepath.Join(c.dir, safeKey(key))
}

// safeKey flattens arbitrary keys, URLs included, into a single filename.
func safeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
