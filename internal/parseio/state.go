package parseio

import (
	"os"
	"time"
)

// SessionState classifies whether a session file is still being
// written to.
type SessionState int

const (
	Inactive SessionState = iota
	RecentlyActive
	PossiblyActive
)

func (s SessionState) String() string {
	switch s {
	case RecentlyActive:
		return "RecentlyActive"
	case PossiblyActive:
		return "PossiblyActive"
	default:
		return "Inactive"
	}
}

// DetectSessionState classifies path as Inactive, RecentlyActive, or
// PossiblyActive: mtime within recentWindow of now wins first;
// otherwise a partial trailing line marks the file PossiblyActive;
// anything else is Inactive.
func DetectSessionState(path string, now time.Time, recentWindow time.Duration) (SessionState, error) {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentActivityWindow
	}

	info, err := os.Stat(path)
	if err != nil {
		return Inactive, err
	}

	if now.Sub(info.ModTime()) <= recentWindow {
		return RecentlyActive, nil
	}

	partial, err := hasPartialTrailingLine(path)
	if err != nil {
		return Inactive, err
	}
	if partial {
		return PossiblyActive, nil
	}

	return Inactive, nil
}

func hasPartialTrailingLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	lr := newLineReader(f, DefaultMaxLineBytes)
	var last lineResult
	sawAny := false
	for {
		line, err := lr.next()
		if err != nil {
			break
		}
		if line.text == "" && line.terminated && !sawAny {
			continue
		}
		last = line
		sawAny = true
	}

	if !sawAny {
		return false, nil
	}
	return !last.terminated && isTruncated(last.text), nil
}
