// Package parseio implements the tolerant streaming JSONL parser:
// line-at-a-time decode with configurable size caps, truncation
// detection on the final line, and session-state classification by
// mtime and partial-write heuristics.
package parseio

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/jkindrix/convo-core/internal/model"
)

const (
	// DefaultMaxLineBytes is the default per-line size cap (50 MB).
	DefaultMaxLineBytes = 50 * 1024 * 1024
	// DefaultRecentActivityWindow is the mtime window under which a
	// session is classified RecentlyActive.
	DefaultRecentActivityWindow = 5 * time.Minute
)

// Parser decodes a JSONL session file into LogEntry values. Strict
// mode makes any malformed line fatal; lenient mode (the zero value)
// skips malformed lines and counts them.
type Parser struct {
	Strict       bool
	MaxLineBytes int64 // 0 uses DefaultMaxLineBytes
	MaxFileBytes int64 // 0 means unlimited
}

// ParseResult is the output of a whole-file parse: the entries that
// decoded successfully plus every per-line error encountered. Batch
// semantics apply at the line level even though Parse itself fails
// fast on whole-file conditions (oversized file, unreadable file, or,
// in strict mode, the first malformed line or a truncated final line).
type ParseResult struct {
	Entries []model.LogEntry
	Errors  []model.ParseError
}

func (p Parser) maxLineBytes() int {
	if p.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return int(p.MaxLineBytes)
}

// Parse reads path and decodes every line into a LogEntry.
func (p Parser) Parse(path string) (ParseResult, error) {
	var result ParseResult
	for item, err := range p.ParseStream(context.Background(), path) {
		if err != nil {
			return ParseResult{}, err
		}
		if item.Err != nil {
			if p.Strict {
				return ParseResult{}, item.Err
			}
			result.Errors = append(result.Errors, *item.Err)
			continue
		}
		result.Entries = append(result.Entries, item.Entry)
	}
	return result, nil
}

// Result is one streamed item: either a decoded entry or a per-line
// ParseError, never both.
type Result struct {
	Entry model.LogEntry
	Err   *model.ParseError
}

// ParseStream lazily decodes path line by line. The iterator's
// second yielded value is a whole-file error (file missing, too
// large, unreadable, or — in strict mode — a truncated final line,
// as CorruptedFileError). Malformed lines are reported through
// Result.Err without stopping iteration in either mode (Parse makes
// the first one fatal in strict mode); in lenient mode a truncated
// final line is likewise reported through Result.Err and discarded.
// Iteration checks ctx between lines so long parses are cancel-safe.
func (p Parser) ParseStream(ctx context.Context, path string) iter.Seq2[Result, error] {
	return p.parseStream(ctx, path, nil)
}

func (p Parser) parseStream(ctx context.Context, path string, onProgress func(int64)) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				yield(Result{}, &model.FileNotFoundError{Path: path})
				return
			}
			yield(Result{}, fmt.Errorf("stat %s: %w", path, err))
			return
		}
		if p.MaxFileBytes > 0 && info.Size() > p.MaxFileBytes {
			yield(Result{}, fmt.Errorf("%s: size %d exceeds max %d", path, info.Size(), p.MaxFileBytes))
			return
		}

		f, err := os.Open(path)
		if err != nil {
			yield(Result{}, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer f.Close()

		p.decodeLines(ctx, f, path, onProgress, yield)
	}
}

func (p Parser) decodeLines(ctx context.Context, r io.Reader, path string, onProgress func(int64), yield func(Result, error) bool) {
	lr := newLineReader(r, p.maxLineBytes())
	lineNo := 0

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		lineNo++
		line, err := lr.next()
		if onProgress != nil {
			onProgress(lr.bytesRead)
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			if !yield(Result{}, &model.ParseError{Line: lineNo, Path: path, Reason: err.Error()}) {
				return
			}
			continue
		}

		if line.oversized {
			pe := model.ParseError{Line: lineNo, Path: path, Reason: fmt.Sprintf("line exceeds %d bytes", p.maxLineBytes())}
			if !yield(Result{Err: &pe}, nil) {
				return
			}
			continue
		}

		if line.text == "" {
			continue
		}

		if !line.terminated && isTruncated(line.text) {
			if p.Strict {
				yield(Result{}, &model.CorruptedFileError{Path: path})
				return
			}
			pe := model.ParseError{Line: lineNo, Path: path, Reason: "truncated final line discarded"}
			yield(Result{Err: &pe}, nil)
			return
		}

		entry, decodeErr := model.DecodeLogEntry([]byte(line.text))
		if decodeErr != nil {
			pe := model.ParseError{Line: lineNo, Path: path, Reason: decodeErr.Error()}
			if !yield(Result{Err: &pe}, nil) {
				return
			}
			continue
		}

		if !yield(Result{Entry: entry}, nil) {
			return
		}
	}
}

// ProgressStreamingParser wraps Parser with a byte-position callback,
// fired after a line has been read once at least ByteInterval bytes
// have been consumed since the last callback, for callers that want
// to report progress over a large file without waiting for
// completion.
type ProgressStreamingParser struct {
	Parser
	ByteInterval int64 // 0 disables progress callbacks
	OnProgress   func(bytesRead int64)
}

// ParseStream decodes path like Parser.ParseStream but additionally
// invokes OnProgress roughly every ByteInterval bytes.
func (p ProgressStreamingParser) ParseStream(ctx context.Context, path string) iter.Seq2[Result, error] {
	if p.OnProgress == nil || p.ByteInterval <= 0 {
		return p.Parser.ParseStream(ctx, path)
	}

	var lastReported int64
	onProgress := func(bytesRead int64) {
		if bytesRead-lastReported >= p.ByteInterval {
			lastReported = bytesRead
			p.OnProgress(bytesRead)
		}
	}
	return p.Parser.parseStream(ctx, path, onProgress)
}

// isTruncated reports whether a final, newline-less line looks like
// a partial write rather than a deliberately unterminated last line
// (e.g. no closing brace).
func isTruncated(line string) bool {
	if len(line) == 0 {
		return true
	}
	last := line[len(line)-1]
	return last != '}' && last != ']'
}
