package searchindex

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const metaFileName = "meta.json"

type meta struct {
	SchemaVersion int `json:"schema_version"`
}

// readMeta reads the marker file, reporting ok=false when it's
// absent — the signal that opening this directory must create a
// fresh index rather than reuse one.
func readMeta(dir string) (meta, bool, error) {
	path := filepath.Join(dir, metaFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return meta{}, false, nil
	}
	if err != nil {
		return meta{}, false, err
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return meta{}, false, err
	}
	return m, true, nil
}

func writeMeta(dir string, m meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFileName), data, 0o644)
}
