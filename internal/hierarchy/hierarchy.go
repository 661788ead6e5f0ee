// Package hierarchy links sub-agent sessions back to the main session
// that most plausibly spawned them, using temporal adjacency rather
// than an explicit spawn record — the common case for standalone
// agent-*.jsonl files that carry no queue-operation entry at all.
package hierarchy

import (
	"sort"
	"time"

	"github.com/jkindrix/convo-core/internal/model"
)

// DefaultWindow is the maximum |mtime diff| a sub-agent may be matched
// to a main session across, per spec.
const DefaultWindow = time.Hour

// ResolveHierarchy partitions main and sub-agent sessions that have
// already been separated by the caller, matches each sub-agent to the
// main session minimizing |mtime diff| within window, and returns one
// root AgentNode per main session (subagents attached as depth-1
// children) plus one root per unmatched sub-agent at depth 0.
//
// This is intentionally heuristic: metadata sparsity (clock skew,
// missing mtimes) degrades matches gracefully to "unassigned" rather
// than erroring.
func ResolveHierarchy(main, subagents []model.Session, window time.Duration) []*model.AgentNode {
	if window <= 0 {
		window = DefaultWindow
	}

	childrenOf := make(map[string][]model.Session, len(main))
	var unassigned []model.Session

	for _, sub := range subagents {
		best, ok := bestParent(sub, main, window)
		if !ok {
			unassigned = append(unassigned, sub)
			continue
		}
		childrenOf[best.ID] = append(childrenOf[best.ID], sub)
	}

	nodes := make([]*model.AgentNode, 0, len(main)+len(unassigned))

	for _, parent := range main {
		children := childrenOf[parent.ID]
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].File.Mtime.Before(children[j].File.Mtime)
		})

		node := &model.AgentNode{Session: parent, Depth: 0}
		for _, c := range children {
			node.Children = append(node.Children, &model.AgentNode{Session: c, Depth: 1})
		}
		nodes = append(nodes, node)
	}

	for _, sub := range unassigned {
		nodes = append(nodes, &model.AgentNode{Session: sub, Depth: 0})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Session.File.Mtime.After(nodes[j].Session.File.Mtime)
	})

	return nodes
}

// bestParent finds the main session minimizing |mtime diff| to sub,
// subject to the diff being within window. Ties are broken by
// earliest appearance in main (stable scan order).
func bestParent(sub model.Session, main []model.Session, window time.Duration) (model.Session, bool) {
	var best model.Session
	found := false
	var bestDiff time.Duration

	for _, parent := range main {
		diff := sub.File.Mtime.Sub(parent.File.Mtime)
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = parent, diff, true
		}
	}
	return best, found
}
