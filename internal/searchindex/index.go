// Package searchindex implements the full-text search index over
// session content, backed by a SQLite FTS5 virtual table: content,
// thinking, and tool_input are full-text columns, the rest are plain
// indexed columns on the backing table. Exactly one writer may hold
// the index directory at a time, enforced by an OS-level exclusive
// file lock independent of SQLite's own locking.
package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jkindrix/convo-core/internal/model"
)

const dbFileName = "index.sqlite3"
const lockFileName = ".lock"

// Config configures Open.
type Config struct {
	Dir string
}

// Index is an open, writable search index.
type Index struct {
	dir  string
	db   *sql.DB
	lock *flock.Flock
}

// Open creates <dir>/index.sqlite3 and <dir>/meta.json if absent, or
// reopens an existing index if the marker is present and its schema
// version matches. Acquires an exclusive lock on the directory for
// the lifetime of the returned Index; callers must Close it.
func Open(cfg Config) (*Index, error) {
	if cfg.Dir == "" {
		return nil, &model.InvalidArgumentError{Name: "Dir", Reason: "must not be empty"}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, &model.IndexError{Op: "open", Err: fmt.Errorf("mkdir %s: %w", cfg.Dir, err)}
	}

	lock := flock.New(filepath.Join(cfg.Dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, &model.IndexError{Op: "open", Err: err}
	}
	if !locked {
		return nil, &model.IndexError{Op: "open", Err: fmt.Errorf("index at %s is locked by another writer", cfg.Dir)}
	}

	existing, hadMarker, err := readMeta(cfg.Dir)
	if err != nil {
		_ = lock.Unlock()
		return nil, &model.IndexError{Op: "open", Err: err}
	}
	if hadMarker && existing.SchemaVersion != schemaVersion {
		_ = lock.Unlock()
		return nil, &model.SchemaVersionMismatchError{
			Found: fmt.Sprintf("%d", existing.SchemaVersion),
			Want:  fmt.Sprintf("%d", schemaVersion),
		}
	}

	dbPath := filepath.Join(cfg.Dir, dbFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		_ = lock.Unlock()
		return nil, &model.IndexError{Op: "open", Err: err}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, &model.IndexError{Op: "open", Err: fmt.Errorf("applying schema: %w", err)}
	}

	if !hadMarker {
		if err := writeMeta(cfg.Dir, meta{SchemaVersion: schemaVersion}); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, &model.IndexError{Op: "open", Err: err}
		}
	}

	return &Index{dir: cfg.Dir, db: db, lock: lock}, nil
}

// Close releases the writer lock and closes the database handle.
func (idx *Index) Close() error {
	dbErr := idx.db.Close()
	lockErr := idx.lock.Unlock()
	if dbErr != nil {
		return &model.IndexError{Op: "close", Err: dbErr}
	}
	if lockErr != nil {
		return &model.IndexError{Op: "close", Err: lockErr}
	}
	return nil
}

// Commit makes prior writes visible to new readers. SQLite already
// commits each statement executed outside an explicit transaction, so
// this additionally runs a passive WAL checkpoint so a reader opening
// a fresh connection sees the same data without waiting on SQLite's
// own checkpoint schedule.
func (idx *Index) Commit() error {
	if _, err := idx.db.Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		return &model.IndexError{Op: "commit", Err: err}
	}
	return nil
}

// IndexableSession is the input to IndexSessions: a session's
// identity plus its already-parsed entries.
type IndexableSession struct {
	SessionID string
	Project   string
	Entries   []model.LogEntry
}

// SessionIndexError records a session that failed to index along with
// why; IndexSessions captures these rather than aborting the batch.
type SessionIndexError struct {
	SessionID string
	Reason    string
}

// IndexingResult summarizes one IndexSessions call.
type IndexingResult struct {
	DocumentsIndexed int
	SessionsIndexed  int
	Errors           []SessionIndexError
}

// IndexSessions maps each session's entries to documents and inserts
// them inside one transaction per session, so a mid-session failure
// doesn't leave partial documents for that session while still
// letting the batch continue with the next one.
func (idx *Index) IndexSessions(ctx context.Context, sessions []IndexableSession) (IndexingResult, error) {
	var result IndexingResult

	const insertSQL = `INSERT INTO documents
		(session_id, project, uuid, timestamp, message_type, model, tool_name, content, thinking, tool_input)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tx, err := idx.db.BeginTx(ctx, nil)
		if err != nil {
			result.Errors = append(result.Errors, SessionIndexError{SessionID: sess.SessionID, Reason: err.Error()})
			continue
		}

		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			_ = tx.Rollback()
			result.Errors = append(result.Errors, SessionIndexError{SessionID: sess.SessionID, Reason: err.Error()})
			continue
		}

		indexed := 0
		failed := false
		for _, entry := range sess.Entries {
			doc, ok := documentsFor(sess.SessionID, sess.Project, entry)
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, doc.SessionID, doc.Project, doc.UUID, doc.Timestamp,
				doc.MessageType, doc.Model, doc.ToolName, doc.Content, doc.Thinking, doc.ToolInput); err != nil {
				result.Errors = append(result.Errors, SessionIndexError{SessionID: sess.SessionID, Reason: err.Error()})
				failed = true
				break
			}
			indexed++
		}
		_ = stmt.Close()

		if failed {
			_ = tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			result.Errors = append(result.Errors, SessionIndexError{SessionID: sess.SessionID, Reason: err.Error()})
			continue
		}

		result.DocumentsIndexed += indexed
		result.SessionsIndexed++
	}

	return result, nil
}

// Clear deletes every document and commits.
func (idx *Index) Clear() error {
	if _, err := idx.db.Exec("DELETE FROM documents"); err != nil {
		return &model.IndexError{Op: "clear", Err: err}
	}
	if _, err := idx.db.Exec("INSERT INTO documents_fts(documents_fts) VALUES('rebuild')"); err != nil {
		return &model.IndexError{Op: "clear", Err: err}
	}
	return idx.Commit()
}

// DeleteSession removes every document belonging to sessionID.
func (idx *Index) DeleteSession(sessionID string) error {
	if _, err := idx.db.Exec("DELETE FROM documents WHERE session_id = ?", sessionID); err != nil {
		return &model.IndexError{Op: "deleteSession", Err: err}
	}
	return nil
}
