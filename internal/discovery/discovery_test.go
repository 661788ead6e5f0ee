package discovery_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkindrix/convo-core/internal/discovery"
	"github.com/jkindrix/convo-core/internal/model"
)

func TestPathCodecRoundTrip(t *testing.T) {
	cases := []struct {
		path    string
		encoded string
	}{
		{"/home/u/my-project", "-home-u-my%2Dproject"},
		{"/a/b/c", "-a-b-c"},
		{"/", "-"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.encoded, discovery.EncodeProjectPath(tc.path))
			assert.Equal(t, tc.path, discovery.DecodeProjectPath(tc.encoded))
		})
	}
}

func TestPathCodecRoundTripProperty(t *testing.T) {
	paths := []string{
		"/home/user/work/repo",
		"/home/user/we-ird--path",
		"/srv/data/proj-1",
	}
	for _, p := range paths {
		got := discovery.DecodeProjectPath(discovery.EncodeProjectPath(p))
		assert.Equal(t, p, got)
	}
}

func TestParseSessionFilename(t *testing.T) {
	id, isSub, err := discovery.ParseSessionFilename("550e8400-e29b-41d4-a716-446655440000.jsonl")
	require.NoError(t, err)
	assert.False(t, isSub)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id)

	id, isSub, err = discovery.ParseSessionFilename("agent-3e533ee1a2.jsonl")
	require.NoError(t, err)
	assert.True(t, isSub)
	assert.Equal(t, "agent-3e533ee1a2", id)

	_, _, err = discovery.ParseSessionFilename("notes.txt")
	require.Error(t, err)

	_, _, err = discovery.ParseSessionFilename("short.jsonl")
	require.Error(t, err)
}

func TestListSessionsSortedNewestFirst(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "11111111111111111111111111111111.jsonl")
	newer := filepath.Join(dir, "22222222222222222222222222222222.jsonl")
	require.NoError(t, os.WriteFile(older, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("{}"), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	sessions, err := discovery.ListSessions(dir)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "22222222222222222222222222222222", sessions[0].ID)
	assert.Equal(t, "11111111111111111111111111111111", sessions[1].ID)
}

func TestFindSessionByPrefixAmbiguous(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.jsonl")
	b := filepath.Join(dir, "aaaabbbbbbbbbbbbbbbbbbbbbbbbbbbb.jsonl")
	require.NoError(t, os.WriteFile(a, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("{}"), 0o644))

	_, err := discovery.FindSessionByPrefix(dir, "aaaa")
	var ambiguous *model.AmbiguousSessionPrefixError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)
}

func TestFindSessionByPrefixUnique(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.jsonl")
	require.NoError(t, os.WriteFile(a, []byte("{}"), 0o644))

	s, err := discovery.FindSessionByPrefix(dir, "aaaa")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", s.ID)
}

func TestFindSessionByPrefixNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := discovery.FindSessionByPrefix(dir, "zzzz")
	var notFound *model.SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListProjectsSortedByDecodedPath(t *testing.T) {
	root := t.TempDir()
	projectsDir := filepath.Join(root, "projects")
	require.NoError(t, os.MkdirAll(filepath.Join(projectsDir, discovery.EncodeProjectPath("/z/late")), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(projectsDir, discovery.EncodeProjectPath("/a/early")), 0o755))

	projects, err := discovery.ListProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "/a/early", discovery.DecodeProjectPath(projects[0].Name))
	assert.Equal(t, "/z/late", discovery.DecodeProjectPath(projects[1].Name))
}
