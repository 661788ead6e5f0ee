// Package cache implements the mtime-gated LRU engine shared by the
// session quick-metadata cache and the parsed-entries cache: a
// lookup misses (without evicting) when the file's current mtime no
// longer matches the mtime recorded at insert time, and eviction is
// governed by both an entry-count budget and a byte-size budget.
package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// Config configures an Engine.
type Config struct {
	Dir        string // advisory; the engine holds values in memory
	MaxBytes   int64
	MaxEntries int
	TTL        time.Duration // advisory, not enforced by eviction
}

// DefaultMaxBytes is the byte budget used when Config.MaxBytes is 0.
const DefaultMaxBytes = 100 * 1024 * 1024

// SizeFunc estimates the in-memory size, in bytes, of a cached
// value.
type SizeFunc[V any] func(V) int64

type cacheKey struct {
	path  string
	mtime int64
}

type entry[V any] struct {
	value V
	size  int64
}

// Engine is a generic mtime-gated, byte/entry-budget LRU cache.
// Two instantiations back the two caches the analyzer needs:
// Engine[model.QuickMetadata] and Engine[EntriesRef].
type Engine[V any] struct {
	mu          sync.RWMutex
	lru         *lru.LRU[cacheKey, entry[V]]
	maxBytes    int64
	maxEntries  int
	currentSize int64
	sizeOf      SizeFunc[V]
}

// New creates an Engine. sizeOf estimates the byte size of a value
// for budget accounting; it is called once per insert.
func New[V any](cfg Config, sizeOf SizeFunc[V]) *Engine[V] {
	e := &Engine[V]{
		maxBytes:   cfg.MaxBytes,
		maxEntries: cfg.MaxEntries,
		sizeOf:     sizeOf,
	}
	if e.maxBytes <= 0 {
		e.maxBytes = DefaultMaxBytes
	}

	// simplelru enforces its own size bound when maxEntries > 0; when
	// unset we still need a backing size because the library requires
	// one, so use a generous ceiling and let our own byte-budget loop
	// do the real work.
	backingSize := cfg.MaxEntries
	if backingSize <= 0 {
		backingSize = 1 << 20
	}

	onEvict := func(_ cacheKey, v entry[V]) {
		e.currentSize -= v.size
	}
	l, err := lru.NewLRU[cacheKey, entry[V]](backingSize, onEvict)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// backingSize never is.
		panic(fmt.Sprintf("cache: unexpected simplelru error: %v", err))
	}
	e.lru = l

	return e
}

// Get looks up path, revalidating against the file's current mtime.
// A stale or absent entry misses without being evicted — it's left
// in place to be overwritten by the next Put or swept by
// InvalidateStale.
func (e *Engine[V]) Get(path string) (V, bool) {
	var zero V

	info, err := os.Stat(path)
	if err != nil {
		return zero, false
	}
	key := cacheKey{path: path, mtime: info.ModTime().UnixNano()}

	e.mu.RLock()
	defer e.mu.RUnlock()

	ent, ok := e.lru.Get(key)
	if !ok {
		return zero, false
	}
	return ent.value, true
}

// Put inserts value for path at the file's current mtime, evicting
// by entry count and then by byte budget until both are satisfied.
func (e *Engine[V]) Put(path string, value V) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cache: stat %s: %w", path, err)
	}
	key := cacheKey{path: path, mtime: info.ModTime().UnixNano()}
	size := e.sizeOf(value)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Drop any stale entry for this path under a different mtime so
	// it doesn't linger as dead weight, and any entry under the same
	// mtime so its size isn't counted twice when the value is replaced.
	e.evictOtherVersions(path, key)
	e.lru.Remove(key)

	if e.maxEntries > 0 {
		for e.lru.Len() >= e.maxEntries {
			if !e.evictOldest() {
				break
			}
		}
	}
	for e.currentSize+size > e.maxBytes && e.lru.Len() > 0 {
		if !e.evictOldest() {
			break
		}
	}

	e.lru.Add(key, entry[V]{value: value, size: size})
	e.currentSize += size
	return nil
}

func (e *Engine[V]) evictOldest() bool {
	_, _, ok := e.lru.RemoveOldest()
	return ok
}

func (e *Engine[V]) evictOtherVersions(path string, current cacheKey) {
	for _, k := range e.lru.Keys() {
		if k.path == path && k != current {
			e.lru.Remove(k)
		}
	}
}

// InvalidateStale scans every entry and evicts the ones whose stored
// mtime no longer matches the file's current mtime on disk,
// returning the count evicted.
func (e *Engine[V]) InvalidateStale() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := 0
	for _, k := range e.lru.Keys() {
		info, err := os.Stat(k.path)
		stale := err != nil || info.ModTime().UnixNano() != k.mtime
		if !stale {
			continue
		}
		e.lru.Remove(k)
		evicted++
	}
	return evicted
}

// Len returns the current entry count.
func (e *Engine[V]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lru.Len()
}

// CurrentSize returns the current estimated byte size of all cached
// values.
func (e *Engine[V]) CurrentSize() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentSize
}
