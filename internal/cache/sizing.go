package cache

import (
	"unsafe"

	"github.com/jkindrix/convo-core/internal/model"
)

// EntriesRef is a shared, read-only reference to a parsed entry
// slice so multiple callers can hold the same parse result
// concurrently without copying it.
type EntriesRef struct {
	Entries []model.LogEntry
}

// entriesPerKB is the approximation spec.md §4.6 allows: entries are
// estimated at 1 KB apiece rather than walked field by field.
const entriesPerKB = 1024

// EntriesSize estimates the byte size of a parsed-entries cache
// value as 1 KB × entry count.
func EntriesSize(ref EntriesRef) int64 {
	return int64(len(ref.Entries)) * entriesPerKB
}

// QuickMetadataSize estimates the byte size of a QuickMetadata value
// as its struct size plus the lengths of its string fields — close
// enough for a budget-governed cache that doesn't need byte-exact
// accounting.
func QuickMetadataSize(m model.QuickMetadata) int64 {
	size := int64(unsafe.Sizeof(m))
	size += int64(len(m.SchemaVersion))
	size += int64(len(m.Cwd))
	size += int64(len(m.KindCounts)) * 24 // rough map bucket overhead
	return size
}
