package parseio

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher supplements mtime-polling session-state detection with
// inotify-driven hints: the instant a watched session file is
// written, it is reported as a candidate for PossiblyActive without
// waiting for the next poll cycle. It never replaces
// DetectSessionState, only narrows how soon a caller re-checks it.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan string
}

// NewWatcher starts watching the given session file paths for
// writes.
func NewWatcher(paths []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("parseio: start watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, events: make(chan string, 64)}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("parseio: watch %s: %w", p, err)
		}
	}

	go w.pump()
	return w, nil
}

func (w *Watcher) pump() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.events)
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				select {
				case w.events <- ev.Name:
				default:
					// Drop the hint if nobody's listening; the next
					// poll-based DetectSessionState call still runs.
				}
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Hints returns the channel of paths that were recently written to.
func (w *Watcher) Hints() <-chan string { return w.events }

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }
