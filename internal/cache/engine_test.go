package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkindrix/convo-core/internal/cache"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCacheMtimeInvalidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.jsonl", "v1")

	eng := cache.New(cache.Config{}, func(v string) int64 { return int64(len(v)) })
	require.NoError(t, eng.Put(path, "hello"))

	got, ok := eng.Get(path)
	require.True(t, ok)
	assert.Equal(t, "hello", got)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	_, ok = eng.Get(path)
	assert.False(t, ok, "get after mtime change must miss")
}

func TestCacheEntryBudgetEviction(t *testing.T) {
	dir := t.TempDir()
	eng := cache.New(cache.Config{MaxEntries: 2}, func(v string) int64 { return 1 })

	paths := make([]string, 3)
	for i := range paths {
		paths[i] = writeFile(t, dir, string(rune('a'+i))+".jsonl", "x")
	}

	for _, p := range paths {
		require.NoError(t, eng.Put(p, "v"))
	}

	assert.LessOrEqual(t, eng.Len(), 2)

	// The first path, inserted earliest and never re-accessed, should
	// have been evicted.
	_, ok := eng.Get(paths[0])
	assert.False(t, ok)

	_, ok = eng.Get(paths[2])
	assert.True(t, ok)
}

func TestCacheByteBudgetEviction(t *testing.T) {
	dir := t.TempDir()
	eng := cache.New(cache.Config{MaxBytes: 10}, func(v string) int64 { return int64(len(v)) })

	a := writeFile(t, dir, "a.jsonl", "x")
	b := writeFile(t, dir, "b.jsonl", "x")

	require.NoError(t, eng.Put(a, "12345"))
	require.NoError(t, eng.Put(b, "1234567890"))

	assert.LessOrEqual(t, eng.CurrentSize(), int64(10))
}

func TestCacheInvalidateStale(t *testing.T) {
	dir := t.TempDir()
	eng := cache.New(cache.Config{}, func(v string) int64 { return 1 })

	a := writeFile(t, dir, "a.jsonl", "x")
	require.NoError(t, eng.Put(a, "v"))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(a, future, future))

	evicted := eng.InvalidateStale()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, eng.Len())
}
