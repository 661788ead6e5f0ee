package searchindex

import (
	"strings"

	"github.com/jkindrix/convo-core/internal/model"
)

// document is one indexable row, mapped from a single LogEntry.
type document struct {
	SessionID   string
	Project     string
	UUID        string
	Timestamp   string
	MessageType string
	Model       string
	ToolName    string
	Content     string
	Thinking    string
	ToolInput   string
}

// documentsFor maps one entry to zero or one documents: user,
// assistant, system, and summary entries are indexed; every other
// kind is skipped, per the mapping table.
func documentsFor(sessionID, project string, entry model.LogEntry) (document, bool) {
	switch e := entry.(type) {
	case *model.UserEntry:
		return document{
			SessionID:   sessionID,
			Project:     project,
			UUID:        e.UUID,
			Timestamp:   e.Timestamp.Format(timestampLayout),
			MessageType: string(model.KindUser),
			Content:     textOnly(e.Content),
		}, true

	case *model.AssistantEntry:
		var toolNames, toolInputs []string
		var contentParts []string
		var thinkingParts []string
		for _, b := range e.Content {
			switch blk := b.(type) {
			case *model.TextBlock:
				if blk.Text != "" {
					contentParts = append(contentParts, blk.Text)
				}
			case *model.ThinkingBlock:
				if blk.Thinking != "" {
					thinkingParts = append(thinkingParts, blk.Thinking)
				}
			case *model.ToolUseBlock:
				toolNames = append(toolNames, blk.Name)
				toolInputs = append(toolInputs, string(blk.Input))
			case *model.ToolResultBlock:
				if s := blk.Content.String(); s != "" {
					contentParts = append(contentParts, s)
				}
			}
		}
		return document{
			SessionID:   sessionID,
			Project:     project,
			UUID:        e.UUID,
			Timestamp:   e.Timestamp.Format(timestampLayout),
			MessageType: string(model.KindAssistant),
			Model:       e.Model,
			ToolName:    strings.Join(toolNames, "\n"),
			Content:     strings.Join(contentParts, "\n"),
			Thinking:    strings.Join(thinkingParts, "\n"),
			ToolInput:   strings.Join(toolInputs, "\n"),
		}, true

	case *model.SystemEntry:
		return document{
			SessionID:   sessionID,
			Project:     project,
			UUID:        e.UUID,
			Timestamp:   e.Timestamp.Format(timestampLayout),
			MessageType: string(model.KindSystem),
			Content:     e.Content,
		}, true

	case *model.SummaryEntry:
		return document{
			SessionID:   sessionID,
			Project:     project,
			UUID:        e.LeafUUID,
			MessageType: string(model.KindSummary),
			Content:     e.Summary,
		}, true

	default:
		return document{}, false
	}
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// textOnly concatenates text-block text, skipping tool_result blocks
// per the user-entry mapping rule.
func textOnly(blocks []model.ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		if t, ok := b.(*model.TextBlock); ok && t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}
