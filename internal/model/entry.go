package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryKind discriminates the seven LogEntry variants.
type EntryKind string

const (
	KindAssistant           EntryKind = "assistant"
	KindUser                EntryKind = "user"
	KindSystem              EntryKind = "system"
	KindSummary             EntryKind = "summary"
	KindFileHistorySnapshot EntryKind = "file-history-snapshot"
	KindQueueOperation      EntryKind = "queue-operation"
	KindTurnEnd             EntryKind = "turn_end"
)

// LogEntry is a tagged sum over the seven record kinds a session
// JSONL file may contain, discriminated by a top-level "type" field.
type LogEntry interface {
	Kind() EntryKind
}

// EntryMeta holds the fields common to every kind except summary,
// file-history-snapshot, and turn_end.
type EntryMeta struct {
	UUID        string
	ParentUUID  *string
	Timestamp   time.Time
	SessionID   string
	Version     string
	Cwd         string
	GitBranch   string
	IsSidechain bool
	AgentID     string
	Slug        string
}

// HasParent reports whether ParentUUID is present and non-empty.
func (m EntryMeta) HasParent() bool {
	return m.ParentUUID != nil && *m.ParentUUID != ""
}

// AssistantEntry is the assistant's turn: a content-block sequence,
// model identifier, stop reason, and token usage.
type AssistantEntry struct {
	EntryMeta
	Model             string
	Content           []ContentBlock
	StopReason        string
	Usage             Usage
	IsAPIErrorMessage bool
	Extra             map[string]json.RawMessage
}

func (e *AssistantEntry) Kind() EntryKind { return KindAssistant }

// UserEntry is a human turn: either plain text or a sequence of
// content blocks (text, tool-result, image), plus optional workflow
// todos and raw tool-use-result metadata.
type UserEntry struct {
	EntryMeta
	Content       []ContentBlock
	IsMeta        bool
	Todos         []Todo
	ToolUseResult json.RawMessage
	Extra         map[string]json.RawMessage
}

func (e *UserEntry) Kind() EntryKind { return KindUser }

// Todo is one workflow todo item attached to a user entry.
type Todo struct {
	Content string
	Status  string
}

// SystemEntry is a notification, API-error retry, hook-execution
// summary, compaction boundary marker, or local slash command.
// LogicalParentUUID survives compaction and reattaches the node to
// its pre-compaction ancestor when the direct parent is gone.
type SystemEntry struct {
	EntryMeta
	LogicalParentUUID *string
	Content           string
	Level             string
	Extra             map[string]json.RawMessage
}

func (e *SystemEntry) Kind() EntryKind { return KindSystem }

// SummaryEntry is a post-compaction digest. It has no UUID and
// references the leaf UUID it summarizes up to.
type SummaryEntry struct {
	LeafUUID string
	Summary  string
	Extra    map[string]json.RawMessage
}

func (e *SummaryEntry) Kind() EntryKind { return KindSummary }

// FileHistorySnapshotEntry tracks a backup of a touched file for
// undo/redo.
type FileHistorySnapshotEntry struct {
	MessageID string
	Snapshot  json.RawMessage
	Extra     map[string]json.RawMessage
}

func (e *FileHistorySnapshotEntry) Kind() EntryKind { return KindFileHistorySnapshot }

// QueueOperationEntry records an enqueue/dequeue/remove/popAll of
// buffered input.
type QueueOperationEntry struct {
	SessionID string
	Timestamp time.Time
	Operation string
	Extra     map[string]json.RawMessage
}

func (e *QueueOperationEntry) Kind() EntryKind { return KindQueueOperation }

// TurnEndEntry marks turn completion. It carries no parent linkage.
type TurnEndEntry struct {
	Timestamp time.Time
	Extra     map[string]json.RawMessage
}

func (e *TurnEndEntry) Kind() EntryKind { return KindTurnEnd }

// DecodeLogEntry decodes one JSONL line into a typed LogEntry,
// stashing any field not explicitly modeled into that kind's Extra
// map so re-encoding can reproduce it.
func DecodeLogEntry(line []byte) (LogEntry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, fmt.Errorf("decode entry type: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("decode entry fields: %w", err)
	}

	switch probe.Type {
	case "assistant":
		return decodeAssistantEntry(fields)
	case "user":
		return decodeUserEntry(fields)
	case "system":
		return decodeSystemEntry(fields)
	case "summary":
		return decodeSummaryEntry(fields)
	case "file-history-snapshot":
		return decodeFileHistorySnapshotEntry(fields)
	case "queue-operation":
		return decodeQueueOperationEntry(fields)
	case "turn_end":
		return decodeTurnEndEntry(fields)
	default:
		return nil, fmt.Errorf("unknown entry type %q", probe.Type)
	}
}

var commonMetaFields = []string{
	"type", "uuid", "parentUuid", "timestamp", "sessionId", "version",
	"cwd", "gitBranch", "isSidechain", "agentId", "slug",
}

func decodeEntryMeta(fields map[string]json.RawMessage) (EntryMeta, error) {
	var raw struct {
		UUID        string  `json:"uuid"`
		ParentUUID  *string `json:"parentUuid"`
		Timestamp   time.Time `json:"timestamp"`
		SessionID   string  `json:"sessionId"`
		Version     string  `json:"version"`
		Cwd         string  `json:"cwd"`
		GitBranch   string  `json:"gitBranch"`
		IsSidechain bool    `json:"isSidechain"`
		AgentID     string  `json:"agentId"`
		Slug        string  `json:"slug"`
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return EntryMeta{}, err
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return EntryMeta{}, fmt.Errorf("decode entry meta: %w", err)
	}
	return EntryMeta{
		UUID:        raw.UUID,
		ParentUUID:  raw.ParentUUID,
		Timestamp:   raw.Timestamp,
		SessionID:   raw.SessionID,
		Version:     raw.Version,
		Cwd:         raw.Cwd,
		GitBranch:   raw.GitBranch,
		IsSidechain: raw.IsSidechain,
		AgentID:     raw.AgentID,
		Slug:        raw.Slug,
	}, nil
}

func decodeAssistantEntry(fields map[string]json.RawMessage) (*AssistantEntry, error) {
	meta, err := decodeEntryMeta(fields)
	if err != nil {
		return nil, err
	}

	var body struct {
		IsAPIErrorMessage bool `json:"isApiErrorMessage"`
		Message           struct {
			Model      string          `json:"model"`
			Content    json.RawMessage `json:"content"`
			StopReason string          `json:"stop_reason"`
			Usage      *wireUsage      `json:"usage"`
		} `json:"message"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode assistant entry: %w", err)
	}

	blocks, err := DecodeContentBlocks(body.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("decode assistant content: %w", err)
	}

	e := &AssistantEntry{
		EntryMeta:         meta,
		Model:             body.Message.Model,
		Content:           blocks,
		StopReason:        body.Message.StopReason,
		IsAPIErrorMessage: body.IsAPIErrorMessage,
		Extra:             extraFields(fields, append(commonMetaFields, "message", "isApiErrorMessage")...),
	}
	if body.Message.Usage != nil {
		e.Usage = body.Message.Usage.toUsage()
	}
	return e, nil
}

// wireUsage mirrors the on-the-wire shape of a usage object, which
// differs slightly from model.Usage's in-memory shape (e.g. nested
// ephemeral cache buckets, a server_tool_use object).
type wireUsage struct {
	InputTokens              int64            `json:"input_tokens"`
	OutputTokens             int64            `json:"output_tokens"`
	CacheCreationInputTokens int64            `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64            `json:"cache_read_input_tokens"`
	ServiceTier              string           `json:"service_tier"`
	CacheCreation            *cacheCreation   `json:"cache_creation"`
	ServerToolUse            map[string]int64 `json:"server_tool_use"`
}

type cacheCreation struct {
	Ephemeral5mInputTokens *int64 `json:"ephemeral_5m_input_tokens"`
	Ephemeral1hInputTokens *int64 `json:"ephemeral_1h_input_tokens"`
}

func (w *wireUsage) toUsage() Usage {
	u := Usage{
		InputTokens:              w.InputTokens,
		OutputTokens:             w.OutputTokens,
		CacheCreationInputTokens: w.CacheCreationInputTokens,
		CacheReadInputTokens:     w.CacheReadInputTokens,
		ServiceTier:              w.ServiceTier,
	}
	if w.CacheCreation != nil {
		u.Ephemeral5mInputTokens = w.CacheCreation.Ephemeral5mInputTokens
		u.Ephemeral1hInputTokens = w.CacheCreation.Ephemeral1hInputTokens
	}
	if len(w.ServerToolUse) > 0 {
		u.ServerToolRequests = w.ServerToolUse
	}
	return u
}

func decodeUserEntry(fields map[string]json.RawMessage) (*UserEntry, error) {
	meta, err := decodeEntryMeta(fields)
	if err != nil {
		return nil, err
	}

	var body struct {
		IsMeta        bool            `json:"isMeta"`
		ToolUseResult json.RawMessage `json:"toolUseResult"`
		Todos         []Todo          `json:"todos"`
		Message       struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode user entry: %w", err)
	}

	blocks, err := DecodeContentBlocks(body.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("decode user content: %w", err)
	}

	return &UserEntry{
		EntryMeta:     meta,
		Content:       blocks,
		IsMeta:        body.IsMeta,
		Todos:         body.Todos,
		ToolUseResult: body.ToolUseResult,
		Extra:         extraFields(fields, append(commonMetaFields, "message", "isMeta", "toolUseResult", "todos")...),
	}, nil
}

func decodeSystemEntry(fields map[string]json.RawMessage) (*SystemEntry, error) {
	meta, err := decodeEntryMeta(fields)
	if err != nil {
		return nil, err
	}

	var body struct {
		LogicalParentUUID *string `json:"logicalParentUuid"`
		Content           string  `json:"content"`
		Level             string  `json:"level"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode system entry: %w", err)
	}

	return &SystemEntry{
		EntryMeta:         meta,
		LogicalParentUUID: body.LogicalParentUUID,
		Content:           body.Content,
		Level:             body.Level,
		Extra:             extraFields(fields, append(commonMetaFields, "logicalParentUuid", "content", "level")...),
	}, nil
}

func decodeSummaryEntry(fields map[string]json.RawMessage) (*SummaryEntry, error) {
	var body struct {
		LeafUUID string `json:"leafUuid"`
		Summary  string `json:"summary"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode summary entry: %w", err)
	}
	return &SummaryEntry{
		LeafUUID: body.LeafUUID,
		Summary:  body.Summary,
		Extra:    extraFields(fields, "type", "leafUuid", "summary"),
	}, nil
}

func decodeFileHistorySnapshotEntry(fields map[string]json.RawMessage) (*FileHistorySnapshotEntry, error) {
	var body struct {
		MessageID string          `json:"messageId"`
		Snapshot  json.RawMessage `json:"snapshot"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode file-history-snapshot entry: %w", err)
	}
	return &FileHistorySnapshotEntry{
		MessageID: body.MessageID,
		Snapshot:  body.Snapshot,
		Extra:     extraFields(fields, "type", "messageId", "snapshot"),
	}, nil
}

func decodeQueueOperationEntry(fields map[string]json.RawMessage) (*QueueOperationEntry, error) {
	var body struct {
		SessionID string    `json:"sessionId"`
		Timestamp time.Time `json:"timestamp"`
		Operation string    `json:"operation"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode queue-operation entry: %w", err)
	}
	return &QueueOperationEntry{
		SessionID: body.SessionID,
		Timestamp: body.Timestamp,
		Operation: body.Operation,
		Extra:     extraFields(fields, "type", "sessionId", "timestamp", "operation"),
	}, nil
}

func decodeTurnEndEntry(fields map[string]json.RawMessage) (*TurnEndEntry, error) {
	var body struct {
		Timestamp time.Time `json:"timestamp"`
	}
	if err := unmarshalFields(fields, &body); err != nil {
		return nil, fmt.Errorf("decode turn_end entry: %w", err)
	}
	return &TurnEndEntry{
		Timestamp: body.Timestamp,
		Extra:     extraFields(fields, "type", "timestamp"),
	}, nil
}

// unmarshalFields re-marshals a raw-message field map and decodes it
// into dst; used once per kind instead of decoding each field by
// hand from the map.
func unmarshalFields(fields map[string]json.RawMessage, dst any) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
