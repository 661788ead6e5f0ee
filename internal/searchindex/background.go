package searchindex

import "context"

// progressInterval is how many sessions are indexed between progress
// emissions.
const progressInterval = 5

// Progress is one update from a background indexing run: either an
// in-progress tally or, when Done, the final IndexingResult.
type Progress struct {
	Indexed int
	Total   int
	Done    bool
	Result  IndexingResult
}

// IndexHandle is returned by BeginBackgroundIndex; it lets a caller
// poll progress without blocking, or block until the run finishes.
type IndexHandle struct {
	updates chan Progress
	done    chan struct{}
	final   IndexingResult
}

// TryProgress does a non-blocking receive of the next progress
// update. ok is false when no update is currently available.
func (h *IndexHandle) TryProgress() (Progress, bool) {
	select {
	case p, open := <-h.updates:
		return p, open
	default:
		return Progress{}, false
	}
}

// Wait blocks until the background run completes, draining any
// remaining progress updates, and returns the final result.
func (h *IndexHandle) Wait() IndexingResult {
	for range h.updates {
		// drain to unblock the writer goroutine
	}
	<-h.done
	return h.final
}

// BeginBackgroundIndex spawns one worker goroutine that indexes
// sessions in order, emitting a Progress update every progressInterval
// sessions, and a final Done progress carrying the IndexingResult.
// Commit runs after the loop completes, before the final update.
func (idx *Index) BeginBackgroundIndex(ctx context.Context, sessions []IndexableSession) *IndexHandle {
	h := &IndexHandle{
		updates: make(chan Progress, len(sessions)/progressInterval+2),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(h.updates)
		defer close(h.done)

		var result IndexingResult
		for i := 0; i < len(sessions); i += progressInterval {
			end := i + progressInterval
			if end > len(sessions) {
				end = len(sessions)
			}
			batch, err := idx.IndexSessions(ctx, sessions[i:end])
			result.DocumentsIndexed += batch.DocumentsIndexed
			result.SessionsIndexed += batch.SessionsIndexed
			result.Errors = append(result.Errors, batch.Errors...)
			if err != nil {
				break
			}
			h.updates <- Progress{Indexed: end, Total: len(sessions)}
		}

		_ = idx.Commit()
		h.final = result
		h.updates <- Progress{Done: true, Total: len(sessions), Result: result}
	}()

	return h
}
