package parseio

import (
	"bufio"
	"bytes"
	"io"
)

const initialScanBufSize = 64 * 1024

// lineReader reads JSONL files line by line and tracks bytes
// consumed so callers can report progress. Unlike a reader that
// silently skips oversized lines, it surfaces them so the caller can
// report a ParseError instead of losing data silently.
type lineReader struct {
	r         *bufio.Reader
	maxLen    int
	bytesRead int64
}

func newLineReader(r io.Reader, maxLen int) *lineReader {
	if maxLen <= 0 {
		maxLen = 1 << 30 // 1 GiB effective cap when "unlimited"
	}
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialScanBufSize),
		maxLen: maxLen,
	}
}

// lineResult is one physical line. terminated is false only for a
// final line with no trailing newline (a possible truncation).
type lineResult struct {
	text       string
	terminated bool
	oversized  bool
	length     int
}

// next returns the next physical line, or io.EOF when the stream is
// exhausted (and nothing remains to return).
func (lr *lineReader) next() (lineResult, error) {
	chunk, err := lr.r.ReadBytes('\n')
	lr.bytesRead += int64(len(chunk))

	if len(chunk) == 0 {
		if err != nil {
			return lineResult{}, err
		}
		return lineResult{terminated: true}, nil
	}

	terminated := false
	if chunk[len(chunk)-1] == '\n' {
		terminated = true
		chunk = chunk[:len(chunk)-1]
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\r' {
			chunk = chunk[:len(chunk)-1]
		}
	}

	if len(chunk) > lr.maxLen {
		return lineResult{oversized: true, length: len(chunk)}, nil
	}

	return lineResult{text: string(bytes.TrimRight(chunk, "")), terminated: terminated}, nil
}
