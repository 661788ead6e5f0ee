package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentBlock is a polymorphic content segment within a message:
// text, tool_use, tool_result, thinking, or image.
type ContentBlock interface {
	BlockType() string
}

// TextBlock is plain assistant/user text.
type TextBlock struct {
	Text  string
	Extra map[string]json.RawMessage
}

func (b *TextBlock) BlockType() string { return "text" }

// ToolUseBlock is a tool invocation requested by the assistant.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
	Extra map[string]json.RawMessage
}

func (b *ToolUseBlock) BlockType() string { return "tool_use" }

// IsServerTool reports whether this tool_use id marks a
// server-executed tool (id prefix "srvtoolu_") rather than a
// client-side one ("toolu_").
func (b *ToolUseBlock) IsServerTool() bool {
	return strings.HasPrefix(b.ID, "srvtoolu_")
}

// IsMCPTool reports whether the tool name belongs to the extension
// protocol namespace "mcp__<server>__<method>", returning the parsed
// server and method when it does.
func (b *ToolUseBlock) IsMCPTool() (server, method string, ok bool) {
	const prefix = "mcp__"
	if !strings.HasPrefix(b.Name, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(b.Name, prefix)
	idx := strings.Index(rest, "__")
	if idx < 0 {
		return rest, "", true
	}
	return rest[:idx], rest[idx+2:], true
}

// ToolResultBlock is the outcome of a prior tool_use, matched by
// ToolUseID. IsError is tri-state: nil means implicit success and
// must never be collapsed into false.
type ToolResultBlock struct {
	ToolUseID string
	Content   ToolResultContent
	IsError   *bool
	Extra     map[string]json.RawMessage
}

func (b *ToolResultBlock) BlockType() string { return "tool_result" }

// ErrorState reports the tri-state error status as one of
// "success", "error", or "unspecified" (absent isError, which spec
// semantics treat identically to success but some callers want to
// distinguish).
func (b *ToolResultBlock) ErrorState() string {
	if b.IsError == nil {
		return "unspecified"
	}
	if *b.IsError {
		return "error"
	}
	return "success"
}

// IsSuccess reports whether this result counts as successful: an
// absent isError is implicit success.
func (b *ToolResultBlock) IsSuccess() bool {
	return b.IsError == nil || !*b.IsError
}

// ToolResultContent is the content of a tool_result block, which may
// be a plain string or an array of content blocks (untagged union
// on the wire).
type ToolResultContent struct {
	Text   string
	Blocks []ContentBlock
	IsText bool
}

// String concatenates the text content of a tool result, whichever
// shape it arrived in.
func (c ToolResultContent) String() string {
	if c.IsText {
		return c.Text
	}
	var parts []string
	for _, b := range c.Blocks {
		if t, ok := b.(*TextBlock); ok {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ThinkingBlock carries a reasoning trace. The signature is
// preserved verbatim but never interpreted.
type ThinkingBlock struct {
	Thinking  string
	Signature string
	Extra     map[string]json.RawMessage
}

func (b *ThinkingBlock) BlockType() string { return "thinking" }

// ImageSource is the sub-tagged sum backing an ImageBlock: a
// base64-embedded image, a URL reference, or a file-id reference.
type ImageSource interface {
	SourceType() string
}

// Base64Source embeds image bytes directly in the log.
type Base64Source struct {
	MediaType string
	Data      string
}

func (s *Base64Source) SourceType() string { return "base64" }

// URLSource references an externally hosted image.
type URLSource struct {
	URL string
}

func (s *URLSource) SourceType() string { return "url" }

// FileSource references a previously uploaded file by id.
type FileSource struct {
	FileID string
}

func (s *FileSource) SourceType() string { return "file" }

// ImageBlock is an image content segment.
type ImageBlock struct {
	Source ImageSource
	Extra  map[string]json.RawMessage
}

func (b *ImageBlock) BlockType() string { return "image" }

// decodeContentBlock decodes one raw JSON object into a typed
// ContentBlock, discriminated by its "type" field, stashing any
// field not explicitly modeled into Extra so re-serialization can
// reproduce it.
func decodeContentBlock(raw json.RawMessage) (ContentBlock, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode content block: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode content block fields: %w", err)
	}

	switch probe.Type {
	case "text":
		var t struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &TextBlock{Text: t.Text, Extra: extraFields(fields, "type", "text")}, nil

	case "tool_use":
		var t struct {
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &ToolUseBlock{
			ID:    t.ID,
			Name:  t.Name,
			Input: t.Input,
			Extra: extraFields(fields, "type", "id", "name", "input"),
		}, nil

	case "tool_result":
		var t struct {
			ToolUseID string          `json:"tool_use_id"`
			Content   json.RawMessage `json:"content"`
			IsError   *bool           `json:"is_error"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		content, err := decodeToolResultContent(t.Content)
		if err != nil {
			return nil, err
		}
		return &ToolResultBlock{
			ToolUseID: t.ToolUseID,
			Content:   content,
			IsError:   t.IsError,
			Extra:     extraFields(fields, "type", "tool_use_id", "content", "is_error"),
		}, nil

	case "thinking":
		var t struct {
			Thinking  string `json:"thinking"`
			Signature string `json:"signature"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &ThinkingBlock{
			Thinking:  t.Thinking,
			Signature: t.Signature,
			Extra:     extraFields(fields, "type", "thinking", "signature"),
		}, nil

	case "image":
		var t struct {
			Source json.RawMessage `json:"source"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		src, err := decodeImageSource(t.Source)
		if err != nil {
			return nil, err
		}
		return &ImageBlock{Source: src, Extra: extraFields(fields, "type", "source")}, nil

	default:
		return nil, fmt.Errorf("unknown content block type %q", probe.Type)
	}
}

func decodeToolResultContent(raw json.RawMessage) (ToolResultContent, error) {
	if len(raw) == 0 {
		return ToolResultContent{IsText: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ToolResultContent{Text: s, IsText: true}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ToolResultContent{}, fmt.Errorf("decode tool_result content: %w", err)
	}
	blocks := make([]ContentBlock, 0, len(items))
	for _, item := range items {
		b, err := decodeContentBlock(item)
		if err != nil {
			// Array entries for tool_result content are not always
			// full content blocks (e.g. arbitrary JSON); skip ones
			// that don't decode rather than failing the whole line.
			continue
		}
		blocks = append(blocks, b)
	}
	return ToolResultContent{Blocks: blocks}, nil
}

func decodeImageSource(raw json.RawMessage) (ImageSource, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode image source: %w", err)
	}
	switch probe.Type {
	case "base64":
		var s struct {
			MediaType string `json:"media_type"`
			Data      string `json:"data"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &Base64Source{MediaType: s.MediaType, Data: s.Data}, nil
	case "url":
		var s struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &URLSource{URL: s.URL}, nil
	case "file":
		var s struct {
			FileID string `json:"file_id"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &FileSource{FileID: s.FileID}, nil
	default:
		return nil, fmt.Errorf("unknown image source type %q", probe.Type)
	}
}

// extraFields returns every key in fields not named in known,
// suitable for stashing in a block's Extra map.
func extraFields(fields map[string]json.RawMessage, known ...string) map[string]json.RawMessage {
	skip := make(map[string]bool, len(known))
	for _, k := range known {
		skip[k] = true
	}
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if skip[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// DecodeContentBlocks decodes a "content" field that may be either a
// plain string (wrapped as a single TextBlock) or a JSON array of
// content blocks.
func DecodeContentBlocks(raw json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []ContentBlock{&TextBlock{Text: s}}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}
	blocks := make([]ContentBlock, 0, len(items))
	for i, item := range items {
		b, err := decodeContentBlock(item)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
