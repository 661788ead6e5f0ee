package model

import "encoding/json"

// flatten merges a set of known fields with an Extra map of
// unmodeled fields into one object, so MarshalJSON can round-trip
// every field a record arrived with even though only a subset is
// modeled as Go struct fields.
func flatten(known map[string]any, extra map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(known)+len(extra))
	for k, v := range known {
		if isOmittable(v) {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	for k, v := range extra {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func isOmittable(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case *string:
		return t == nil
	case nil:
		return true
	default:
		return false
	}
}

func (e *AssistantEntry) metaFields() map[string]any {
	return map[string]any{
		"type":        "assistant",
		"uuid":        e.UUID,
		"parentUuid":  e.ParentUUID,
		"timestamp":   e.Timestamp,
		"sessionId":   e.SessionID,
		"version":     e.Version,
		"cwd":         e.Cwd,
		"gitBranch":   e.GitBranch,
		"isSidechain": e.IsSidechain,
		"agentId":     e.AgentID,
		"slug":        e.Slug,
	}
}

// MarshalJSON re-flattens Extra alongside the modeled fields so the
// set of fields present on decode survives re-encoding.
func (e *AssistantEntry) MarshalJSON() ([]byte, error) {
	known := e.metaFields()
	known["isApiErrorMessage"] = e.IsAPIErrorMessage
	known["message"] = assistantMessageWire{
		Model:      e.Model,
		Content:    e.Content,
		StopReason: e.StopReason,
	}
	return flatten(known, e.Extra)
}

type assistantMessageWire struct {
	Model      string         `json:"model,omitempty"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason,omitempty"`
}

func (e *UserEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":        "user",
		"uuid":        e.UUID,
		"parentUuid":  e.ParentUUID,
		"timestamp":   e.Timestamp,
		"sessionId":   e.SessionID,
		"version":     e.Version,
		"cwd":         e.Cwd,
		"gitBranch":   e.GitBranch,
		"isSidechain": e.IsSidechain,
		"agentId":     e.AgentID,
		"slug":        e.Slug,
		"isMeta":      e.IsMeta,
		"message": struct {
			Content []ContentBlock `json:"content"`
		}{Content: e.Content},
	}
	if len(e.ToolUseResult) > 0 {
		known["toolUseResult"] = e.ToolUseResult
	}
	if len(e.Todos) > 0 {
		known["todos"] = e.Todos
	}
	return flatten(known, e.Extra)
}

func (e *SystemEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":              "system",
		"uuid":              e.UUID,
		"parentUuid":        e.ParentUUID,
		"logicalParentUuid": e.LogicalParentUUID,
		"timestamp":         e.Timestamp,
		"sessionId":         e.SessionID,
		"version":           e.Version,
		"cwd":               e.Cwd,
		"gitBranch":         e.GitBranch,
		"isSidechain":       e.IsSidechain,
		"agentId":           e.AgentID,
		"slug":              e.Slug,
		"content":           e.Content,
		"level":             e.Level,
	}
	return flatten(known, e.Extra)
}

func (e *SummaryEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":     "summary",
		"leafUuid": e.LeafUUID,
		"summary":  e.Summary,
	}
	return flatten(known, e.Extra)
}

func (e *FileHistorySnapshotEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":      "file-history-snapshot",
		"messageId": e.MessageID,
	}
	if len(e.Snapshot) > 0 {
		known["snapshot"] = e.Snapshot
	}
	return flatten(known, e.Extra)
}

func (e *QueueOperationEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":      "queue-operation",
		"sessionId": e.SessionID,
		"timestamp": e.Timestamp,
		"operation": e.Operation,
	}
	return flatten(known, e.Extra)
}

func (e *TurnEndEntry) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":      "turn_end",
		"timestamp": e.Timestamp,
	}
	return flatten(known, e.Extra)
}

// MarshalJSON on a block re-flattens its Extra map the same way.
func (b *TextBlock) MarshalJSON() ([]byte, error) {
	return flatten(map[string]any{"type": "text", "text": b.Text}, b.Extra)
}

func (b *ToolUseBlock) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": "tool_use", "id": b.ID, "name": b.Name}
	if len(b.Input) > 0 {
		known["input"] = b.Input
	}
	return flatten(known, b.Extra)
}

func (b *ToolResultBlock) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": "tool_result", "tool_use_id": b.ToolUseID}
	if b.IsError != nil {
		known["is_error"] = *b.IsError
	}
	if b.Content.IsText {
		known["content"] = b.Content.Text
	} else if len(b.Content.Blocks) > 0 {
		known["content"] = b.Content.Blocks
	}
	return flatten(known, b.Extra)
}

func (b *ThinkingBlock) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": "thinking", "thinking": b.Thinking, "signature": b.Signature}
	return flatten(known, b.Extra)
}

func (b *ImageBlock) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": "image", "source": b.Source}
	return flatten(known, b.Extra)
}

func (s *Base64Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "base64", "media_type": s.MediaType, "data": s.Data})
}

func (s *URLSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "url", "url": s.URL})
}

func (s *FileSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "file", "file_id": s.FileID})
}
