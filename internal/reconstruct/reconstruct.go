// Package reconstruct builds a forest of message trees from a
// session's entries, derives the canonical main thread across
// compaction boundaries, and reports branch points and aggregate
// statistics.
package reconstruct

import (
	"sort"
	"time"

	"github.com/jkindrix/convo-core/internal/model"
)

// Node is one entry in the reconstructed forest. A node holds
// pointers to its children but none to its parent, so the forest has
// no reference cycles; Conversation also indexes every node by UUID.
type Node struct {
	UUID     string
	Entry    model.LogEntry
	Children []*Node
	Depth    int
}

// timestamp returns the entry's timestamp if it has one.
func (n *Node) timestamp() (time.Time, bool) {
	switch e := n.Entry.(type) {
	case *model.AssistantEntry:
		return e.Timestamp, true
	case *model.UserEntry:
		return e.Timestamp, true
	case *model.SystemEntry:
		return e.Timestamp, true
	default:
		return time.Time{}, false
	}
}

// latestLeafTimestamp returns the timestamp of the latest leaf in
// this node's subtree (including the node itself if it's a leaf).
func (n *Node) latestLeafTimestamp() time.Time {
	if len(n.Children) == 0 {
		ts, _ := n.timestamp()
		return ts
	}
	var latest time.Time
	for _, c := range n.Children {
		if t := c.latestLeafTimestamp(); t.After(latest) {
			latest = t
		}
	}
	return latest
}

// Conversation is the forest produced by Reconstruct: every root
// plus a UUID index over every node, including non-roots.
type Conversation struct {
	Roots []*Node
	byUUID map[string]*Node
}

// Node looks up a node by UUID.
func (c *Conversation) Node(uuid string) (*Node, bool) {
	n, ok := c.byUUID[uuid]
	return n, ok
}

// Reconstruct builds a Conversation from an ordered sequence of
// entries. Cycles in the parent chain are broken at the repeated
// edge and reported as DataIntegrityErrors rather than causing an
// infinite loop; the batch otherwise continues (spec's "failure
// modes are non-fatal" rule).
func Reconstruct(entries []model.LogEntry) (*Conversation, []model.DataIntegrityError) {
	c := &Conversation{byUUID: make(map[string]*Node)}

	type pending struct {
		uuid        string
		parentUUID  *string
		logicalUUID *string
	}
	var withUUID []pending

	for _, e := range entries {
		uuid, parentUUID, logicalUUID, ok := entryLinkage(e)
		if !ok {
			continue
		}
		node := &Node{UUID: uuid, Entry: e}
		c.byUUID[uuid] = node
		withUUID = append(withUUID, pending{uuid: uuid, parentUUID: parentUUID, logicalUUID: logicalUUID})
	}

	var integrityErrors []model.DataIntegrityError
	parentOf := make(map[string]string, len(withUUID))

	for _, p := range withUUID {
		node := c.byUUID[p.uuid]

		parentID := ""
		if p.parentUUID != nil {
			parentID = *p.parentUUID
		}

		parent, parentExists := c.byUUID[parentID]
		if !parentExists && p.logicalUUID != nil {
			// Reattach across a compaction boundary: the direct
			// parent is gone but the logical parent resolves.
			parentID = *p.logicalUUID
			parent, parentExists = c.byUUID[parentID]
		}

		if parentID == "" || !parentExists {
			c.Roots = append(c.Roots, node)
			continue
		}

		if ancestorChainContains(parentOf, parentID, node.UUID) {
			integrityErrors = append(integrityErrors, model.DataIntegrityError{
				Reason: "cycle detected at " + node.UUID + " -> " + parent.UUID,
			})
			c.Roots = append(c.Roots, node)
			continue
		}

		parent.Children = append(parent.Children, node)
		parentOf[node.UUID] = parentID
	}

	sortChildrenByTimestamp(c.Roots)
	assignDepths(c.Roots, 0)

	sort.Slice(c.Roots, func(i, j int) bool {
		ti, _ := c.Roots[i].timestamp()
		tj, _ := c.Roots[j].timestamp()
		return ti.Before(tj)
	})

	return c, integrityErrors
}

// entryLinkage extracts uuid/parentUuid/logicalParentUuid from
// whichever entry kinds carry them. summary, file-history-snapshot,
// queue-operation, and turn_end entries have no UUID and are
// excluded from the forest.
func entryLinkage(e model.LogEntry) (uuid string, parentUUID, logicalUUID *string, ok bool) {
	switch v := e.(type) {
	case *model.AssistantEntry:
		return v.UUID, v.ParentUUID, nil, v.UUID != ""
	case *model.UserEntry:
		return v.UUID, v.ParentUUID, nil, v.UUID != ""
	case *model.SystemEntry:
		return v.UUID, v.ParentUUID, v.LogicalParentUUID, v.UUID != ""
	default:
		return "", nil, nil, false
	}
}

// ancestorChainContains walks parentOf from start toward the root,
// stopping the instant it would loop back on itself, and reports
// whether target appears in that chain. Evaluated before an edge is
// added, so attaching node as a child of parent would otherwise
// create a cycle when this returns true.
func ancestorChainContains(parentOf map[string]string, start, target string) bool {
	seen := make(map[string]bool)
	cur := start
	for cur != "" {
		if cur == target {
			return true
		}
		if seen[cur] {
			return false // already-broken cycle elsewhere; don't loop forever
		}
		seen[cur] = true
		cur = parentOf[cur]
	}
	return false
}

func sortChildrenByTimestamp(nodes []*Node) {
	for _, n := range nodes {
		sort.SliceStable(n.Children, func(i, j int) bool {
			ti, _ := n.Children[i].timestamp()
			tj, _ := n.Children[j].timestamp()
			return ti.Before(tj)
		})
		sortChildrenByTimestamp(n.Children)
	}
}

func assignDepths(nodes []*Node, depth int) {
	for _, n := range nodes {
		n.Depth = depth
		assignDepths(n.Children, depth+1)
	}
}

// MainThread returns the path from the earliest root to the latest
// leaf, preferring, at each branch point, the child subtree whose
// leaf timestamp is greatest.
func (c *Conversation) MainThread() []*Node {
	if len(c.Roots) == 0 {
		return nil
	}
	root := c.Roots[0] // Roots is sorted ascending by timestamp

	path := []*Node{root}
	current := root
	for len(current.Children) > 0 {
		best := current.Children[0]
		bestTS := best.latestLeafTimestamp()
		for _, child := range current.Children[1:] {
			if ts := child.latestLeafTimestamp(); ts.After(bestTS) {
				best = child
				bestTS = ts
			}
		}
		path = append(path, best)
		current = best
	}
	return path
}

// BranchPoints returns the UUIDs of every node with two or more
// children.
func (c *Conversation) BranchPoints() []string {
	var out []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if len(n.Children) >= 2 {
				out = append(out, n.UUID)
			}
			walk(n.Children)
		}
	}
	walk(c.Roots)
	return out
}

// Statistics summarizes a Conversation's shape.
type Statistics struct {
	TotalNodes       int
	MaxDepth         int
	MainThreadLength int
	BranchCount      int
	ToolUseCount     int
	ToolResultCount  int
}

// ToolsBalanced reports whether tool_use and tool_result counts
// match.
func (s Statistics) ToolsBalanced() bool {
	return s.ToolUseCount == s.ToolResultCount
}

// Statistics computes aggregate counts over the whole forest.
func (c *Conversation) Statistics() Statistics {
	var s Statistics
	s.MainThreadLength = len(c.MainThread())
	s.BranchCount = len(c.BranchPoints())

	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			s.TotalNodes++
			if n.Depth > s.MaxDepth {
				s.MaxDepth = n.Depth
			}
			toolUse, toolResult := countToolBlocks(n.Entry)
			s.ToolUseCount += toolUse
			s.ToolResultCount += toolResult
			walk(n.Children)
		}
	}
	walk(c.Roots)
	return s
}

func countToolBlocks(e model.LogEntry) (toolUse, toolResult int) {
	var blocks []model.ContentBlock
	switch v := e.(type) {
	case *model.AssistantEntry:
		blocks = v.Content
	case *model.UserEntry:
		blocks = v.Content
	default:
		return 0, 0
	}
	for _, b := range blocks {
		switch b.(type) {
		case *model.ToolUseBlock:
			toolUse++
		case *model.ToolResultBlock:
			toolResult++
		}
	}
	return toolUse, toolResult
}
