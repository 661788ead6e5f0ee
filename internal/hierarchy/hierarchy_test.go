package hierarchy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jkindrix/convo-core/internal/hierarchy"
	"github.com/jkindrix/convo-core/internal/model"
)

func sessionAt(id string, when time.Time) model.Session {
	return model.Session{ID: id, File: model.FileInfo{Mtime: when}}
}

func TestResolveHierarchyAssignsWithinWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	main := []model.Session{sessionAt("main-1", base)}
	subagents := []model.Session{sessionAt("agent-aaa", base.Add(10 * time.Minute))}

	nodes := hierarchy.ResolveHierarchy(main, subagents, time.Hour)
	if assert.Len(t, nodes, 1) {
		assert.Equal(t, "main-1", nodes[0].Session.ID)
		if assert.Len(t, nodes[0].Children, 1) {
			assert.Equal(t, "agent-aaa", nodes[0].Children[0].Session.ID)
			assert.Equal(t, 1, nodes[0].Children[0].Depth)
		}
	}
}

func TestResolveHierarchyUnassignedBecomesRoot(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	main := []model.Session{sessionAt("main-1", base)}
	subagents := []model.Session{sessionAt("agent-far", base.Add(10 * time.Hour))}

	nodes := hierarchy.ResolveHierarchy(main, subagents, time.Hour)

	var rootIDs []string
	for _, n := range nodes {
		rootIDs = append(rootIDs, n.Session.ID)
		assert.Empty(t, n.Children, "unmatched subagent's host node should have no children it isn't")
	}
	assert.Contains(t, rootIDs, "agent-far")
}

func TestResolveHierarchyPicksClosestParent(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	main := []model.Session{
		sessionAt("main-early", base),
		sessionAt("main-late", base.Add(20 * time.Minute)),
	}
	subagents := []model.Session{sessionAt("agent-1", base.Add(18 * time.Minute))}

	nodes := hierarchy.ResolveHierarchy(main, subagents, time.Hour)

	for _, n := range nodes {
		if n.Session.ID == "main-late" {
			if assert.Len(t, n.Children, 1) {
				assert.Equal(t, "agent-1", n.Children[0].Session.ID)
			}
		}
		if n.Session.ID == "main-early" {
			assert.Empty(t, n.Children)
		}
	}
}

func TestResolveHierarchyChildrenOrderedByMtimeAscending(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	main := []model.Session{sessionAt("main-1", base)}
	subagents := []model.Session{
		sessionAt("agent-later", base.Add(30 * time.Minute)),
		sessionAt("agent-earlier", base.Add(5 * time.Minute)),
	}

	nodes := hierarchy.ResolveHierarchy(main, subagents, time.Hour)
	if assert.Len(t, nodes, 1) && assert.Len(t, nodes[0].Children, 2) {
		assert.Equal(t, "agent-earlier", nodes[0].Children[0].Session.ID)
		assert.Equal(t, "agent-later", nodes[0].Children[1].Session.ID)
	}
}

func TestResolveHierarchyDefaultsWindowWhenZero(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	main := []model.Session{sessionAt("main-1", base)}
	subagents := []model.Session{sessionAt("agent-aaa", base.Add(10 * time.Minute))}

	nodes := hierarchy.ResolveHierarchy(main, subagents, 0)
	if assert.Len(t, nodes, 1) {
		assert.Len(t, nodes[0].Children, 1)
	}
}
