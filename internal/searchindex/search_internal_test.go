package searchindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuerySeparatesFieldOverrides(t *testing.T) {
	filters, fts := parseQuery("model:opus refactor parser")
	assert.Equal(t, "opus", filters["model"])
	assert.Equal(t, `"refactor parser"`, fts)
}

func TestParseQueryNoOverrides(t *testing.T) {
	filters, fts := parseQuery("hello")
	assert.Empty(t, filters)
	assert.Equal(t, "hello", fts)
}

func TestTruncateSnippetNeverSplitsCodepoint(t *testing.T) {
	s := strings.Repeat("é", 300)
	out := truncateSnippet(s, 200)
	assert.LessOrEqual(t, len([]rune(out))-1, 200)
	assert.True(t, strings.HasSuffix(out, "…"))
}

func TestTruncateSnippetShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncateSnippet("short", 200))
}
