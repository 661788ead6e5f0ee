package discovery

import (
	"context"
	"time"

	"github.com/jkindrix/convo-core/internal/model"
	"github.com/jkindrix/convo-core/internal/parseio"
)

// QuickMetadataOf computes a session's QuickMetadata without
// materializing a full parse result in the caller: it streams the
// file once, tracking first/last timestamps, schema version, cwd,
// and per-kind counts as it goes.
func QuickMetadataOf(path string) (model.QuickMetadata, error) {
	var meta model.QuickMetadata
	meta.KindCounts = make(map[model.EntryKind]int)

	p := parseio.Parser{}
	first := true

	for item, err := range p.ParseStream(context.Background(), path) {
		if err != nil {
			return model.QuickMetadata{}, err
		}
		if item.Err != nil {
			continue
		}

		entry := item.Entry
		meta.KindCounts[entry.Kind()]++

		ts, cwd, version, ok := entryHints(entry)
		if !ok {
			continue
		}
		if first || ts.Before(meta.FirstTimestamp) {
			meta.FirstTimestamp = ts
		}
		if first || ts.After(meta.LastTimestamp) {
			meta.LastTimestamp = ts
		}
		first = false
		if cwd != "" {
			meta.Cwd = cwd
		}
		if version != "" {
			meta.SchemaVersion = version
		}
	}

	return meta, nil
}

// entryHints extracts the timestamp/cwd/version a QuickMetadata scan
// cares about from whichever kind of entry this is; kinds with no
// timestamp (summary, file-history-snapshot) report ok=false.
func entryHints(entry model.LogEntry) (ts time.Time, cwd, version string, ok bool) {
	switch e := entry.(type) {
	case *model.AssistantEntry:
		return e.Timestamp, e.Cwd, e.Version, true
	case *model.UserEntry:
		return e.Timestamp, e.Cwd, e.Version, true
	case *model.SystemEntry:
		return e.Timestamp, e.Cwd, e.Version, true
	case *model.QueueOperationEntry:
		return e.Timestamp, "", "", true
	case *model.TurnEndEntry:
		return e.Timestamp, "", "", true
	default:
		return time.Time{}, "", "", false
	}
}
