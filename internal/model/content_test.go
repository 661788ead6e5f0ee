package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/convo-core/internal/model"
)

func TestDecodeContentBlocksPlainString(t *testing.T) {
	blocks, err := model.DecodeContentBlocks(json.RawMessage(`"hello"`))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	tb, ok := blocks[0].(*model.TextBlock)
	require.True(t, ok)
	require.Equal(t, "hello", tb.Text)
}

func TestDecodeContentBlocksToolUseServerAndMCP(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"tool_use","id":"srvtoolu_abc","name":"web_search","input":{}},
		{"type":"tool_use","id":"toolu_123","name":"mcp__github__list_issues","input":{}}
	]`)
	blocks, err := model.DecodeContentBlocks(raw)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	server := blocks[0].(*model.ToolUseBlock)
	require.True(t, server.IsServerTool())

	mcp := blocks[1].(*model.ToolUseBlock)
	require.False(t, mcp.IsServerTool())
	server2, method, ok := mcp.IsMCPTool()
	require.True(t, ok)
	require.Equal(t, "github", server2)
	require.Equal(t, "list_issues", method)
}

func TestToolResultIsErrorTriState(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		success bool
		state   string
	}{
		{"absent", `{"type":"tool_result","tool_use_id":"t1","content":"ok"}`, true, "unspecified"},
		{"explicit false", `{"type":"tool_result","tool_use_id":"t1","content":"ok","is_error":false}`, true, "success"},
		{"explicit true", `{"type":"tool_result","tool_use_id":"t1","content":"bad","is_error":true}`, false, "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocks, err := model.DecodeContentBlocks(json.RawMessage("[" + tc.raw + "]"))
			require.NoError(t, err)
			tr := blocks[0].(*model.ToolResultBlock)
			require.Equal(t, tc.success, tr.IsSuccess())
			require.Equal(t, tc.state, tr.ErrorState())
		})
	}
}

func TestImageSourceVariants(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"image","source":{"type":"base64","media_type":"image/png","data":"AAAA"}},
		{"type":"image","source":{"type":"url","url":"https://example.com/a.png"}},
		{"type":"image","source":{"type":"file","file_id":"file_1"}}
	]`)
	blocks, err := model.DecodeContentBlocks(raw)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	b64 := blocks[0].(*model.ImageBlock).Source.(*model.Base64Source)
	require.Equal(t, "image/png", b64.MediaType)

	url := blocks[1].(*model.ImageBlock).Source.(*model.URLSource)
	require.Equal(t, "https://example.com/a.png", url.URL)

	file := blocks[2].(*model.ImageBlock).Source.(*model.FileSource)
	require.Equal(t, "file_1", file.FileID)
}

func TestTextBlockExtraFieldsRoundTrip(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","text":"hi","citations":[{"url":"x"}]}]`)
	blocks, err := model.DecodeContentBlocks(raw)
	require.NoError(t, err)

	tb := blocks[0].(*model.TextBlock)
	require.Contains(t, tb.Extra, "citations")

	out, err := json.Marshal(tb)
	require.NoError(t, err)

	var roundTripped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	require.Contains(t, roundTripped, "citations")
	require.Contains(t, roundTripped, "text")
}
