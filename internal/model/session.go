package model

import "time"

// FileInfo holds filesystem metadata for a session source file.
type FileInfo struct {
	Path  string
	Size  int64
	Mtime time.Time
}

// Session is one append-only JSONL log file.
type Session struct {
	ID         string
	IsSubagent bool
	File       FileInfo
	Project    string // encoded project directory name, see Project
}

// QuickMetadata is a per-session summary computed without
// materializing every parsed entry: first/last timestamps, schema
// version, extracted cwd, and per-kind counts.
type QuickMetadata struct {
	FirstTimestamp time.Time
	LastTimestamp  time.Time
	SchemaVersion  string
	Cwd            string
	KindCounts     map[EntryKind]int
}

// Project is one directory whose name encodes the original working
// directory the sessions under it were recorded from.
type Project struct {
	Name string // encoded form, e.g. "-home-u-my%2Dproject"
}

// AgentNode is a session plus its ordered sub-agent children,
// produced by the hierarchy resolver. Depth starts at 0 for roots.
type AgentNode struct {
	Session  Session
	Children []*AgentNode
	Depth    int
}

// TotalSessions counts this node and every descendant.
func (n *AgentNode) TotalSessions() int {
	total := 1
	for _, c := range n.Children {
		total += c.TotalSessions()
	}
	return total
}

// Flatten returns this node and every descendant in depth-first
// order.
func (n *AgentNode) Flatten() []*AgentNode {
	out := []*AgentNode{n}
	for _, c := range n.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}
