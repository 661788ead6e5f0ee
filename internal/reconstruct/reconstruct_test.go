package reconstruct_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkindrix/convo-core/internal/model"
	"github.com/jkindrix/convo-core/internal/reconstruct"
)

func ptr(s string) *string { return &s }

func ts(seconds int64) time.Time {
	return time.Unix(1700000000+seconds, 0).UTC()
}

func assistant(uuid string, parent *string, when int64, usage model.Usage) *model.AssistantEntry {
	return &model.AssistantEntry{
		EntryMeta: model.EntryMeta{UUID: uuid, ParentUUID: parent, Timestamp: ts(when)},
		Usage:     usage,
	}
}

func user(uuid string, parent *string, when int64) *model.UserEntry {
	return &model.UserEntry{
		EntryMeta: model.EntryMeta{UUID: uuid, ParentUUID: parent, Timestamp: ts(when)},
	}
}

// TestReconstructLinear covers a straight-line conversation with no
// branching: A(user) -> B(assistant) -> C(user) -> D(assistant).
func TestReconstructLinear(t *testing.T) {
	entries := []model.LogEntry{
		user("A", nil, 100),
		assistant("B", ptr("A"), 101, model.Usage{InputTokens: 10, OutputTokens: 20}),
		user("C", ptr("B"), 102),
		assistant("D", ptr("C"), 103, model.Usage{InputTokens: 5, OutputTokens: 5}),
	}

	conv, errs := reconstruct.Reconstruct(entries)
	require.Empty(t, errs)
	require.Len(t, conv.Roots, 1)
	assert.Equal(t, "A", conv.Roots[0].UUID)

	main := conv.MainThread()
	require.Len(t, main, 4)
	var gotUUIDs []string
	for _, n := range main {
		gotUUIDs = append(gotUUIDs, n.UUID)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, gotUUIDs); diff != "" {
		t.Errorf("main thread UUIDs mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, conv.BranchPoints())

	stats := conv.Statistics()
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 3, stats.MaxDepth)
	assert.True(t, stats.ToolsBalanced())
}

// TestReconstructBranching covers a branch at B: C continues to D,
// while E branches off B directly with a later timestamp than D. The
// main thread must follow the branch with the latest leaf, not the
// first-created one.
func TestReconstructBranching(t *testing.T) {
	entries := []model.LogEntry{
		user("A", nil, 100),
		assistant("B", ptr("A"), 101, model.Usage{}),
		user("C", ptr("B"), 102),
		assistant("D", ptr("C"), 103, model.Usage{}),
		assistant("E", ptr("B"), 104, model.Usage{}),
	}

	conv, errs := reconstruct.Reconstruct(entries)
	require.Empty(t, errs)

	nodeB, ok := conv.Node("B")
	require.True(t, ok)
	require.Len(t, nodeB.Children, 2)
	assert.Equal(t, "C", nodeB.Children[0].UUID)
	assert.Equal(t, "E", nodeB.Children[1].UUID)

	assert.Equal(t, []string{"B"}, conv.BranchPoints())

	main := conv.MainThread()
	var gotUUIDs []string
	for _, n := range main {
		gotUUIDs = append(gotUUIDs, n.UUID)
	}
	assert.Equal(t, []string{"A", "B", "E"}, gotUUIDs)

	stats := conv.Statistics()
	assert.Equal(t, 5, stats.TotalNodes)
	assert.Equal(t, 1, stats.BranchCount)
	assert.Equal(t, 3, stats.MainThreadLength)
}

// TestReconstructDeterministicRegardlessOfInputOrder checks invariant
// 4: shuffling the input order of the same entries must not change
// the resulting tree shape or main thread.
func TestReconstructDeterministicRegardlessOfInputOrder(t *testing.T) {
	build := func(entries []model.LogEntry) []string {
		conv, errs := reconstruct.Reconstruct(entries)
		require.Empty(t, errs)
		main := conv.MainThread()
		var out []string
		for _, n := range main {
			out = append(out, n.UUID)
		}
		return out
	}

	forward := []model.LogEntry{
		user("A", nil, 100),
		assistant("B", ptr("A"), 101, model.Usage{}),
		user("C", ptr("B"), 102),
		assistant("D", ptr("C"), 103, model.Usage{}),
	}
	reversed := []model.LogEntry{forward[3], forward[2], forward[1], forward[0]}

	assert.Equal(t, build(forward), build(reversed))
}

// TestReconstructTreeTotality checks invariant 5: every entry that
// carries a UUID appears in exactly one node of the forest.
func TestReconstructTreeTotality(t *testing.T) {
	entries := []model.LogEntry{
		user("A", nil, 100),
		assistant("B", ptr("A"), 101, model.Usage{}),
		user("C", ptr("B"), 102),
	}

	conv, errs := reconstruct.Reconstruct(entries)
	require.Empty(t, errs)

	for _, uuid := range []string{"A", "B", "C"} {
		_, ok := conv.Node(uuid)
		assert.True(t, ok, "expected node %s in forest", uuid)
	}
	assert.Equal(t, 3, conv.Statistics().TotalNodes)
}

// TestReconstructCycleIsBrokenNotInfinite covers the failure mode
// where a cycle in the parent chain (B's parent is C, C's parent is
// B) must be reported as a DataIntegrityError and the offending node
// demoted to a root, rather than hanging or panicking.
func TestReconstructCycleIsBrokenNotInfinite(t *testing.T) {
	entries := []model.LogEntry{
		assistant("B", ptr("C"), 101, model.Usage{}),
		user("C", ptr("B"), 102),
	}

	done := make(chan struct{})
	var conv *reconstruct.Conversation
	var errs []model.DataIntegrityError
	go func() {
		conv, errs = reconstruct.Reconstruct(entries)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reconstruct did not terminate on a cyclic parent chain")
	}

	require.NotEmpty(t, errs)
	assert.NotEmpty(t, conv.Roots)
}
