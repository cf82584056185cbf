package claudecode

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_AssistantText(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"assistant","content":[{"type":"text","text":"hi"}]}`))
	require.NoError(t, err)

	assistant, ok := msg.(*AssistantMessage)
	require.True(t, ok, "expected *AssistantMessage, got %T", msg)
	require.Len(t, assistant.Content, 1)

	text, ok := assistant.Content[0].(TextBlock)
	require.True(t, ok, "expected TextBlock, got %T", assistant.Content[0])
	assert.Equal(t, "hi", text.Text)
}

func TestParseMessage_ToolUseAndResult(t *testing.T) {
	line := `{"type":"assistant","content":[` +
		`{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls"}},` +
		`{"type":"tool_result","tool_use_id":"tu_1","content":"files...","is_error":false}]}`

	msg, err := ParseMessage([]byte(line))
	require.NoError(t, err)
	assistant := msg.(*AssistantMessage)
	require.Len(t, assistant.Content, 2)

	use := assistant.Content[0].(ToolUseBlock)
	assert.Equal(t, "tu_1", use.ID)
	assert.Equal(t, "Bash", use.Name)
	assert.Equal(t, map[string]any{"command": "ls"}, use.Input)

	result := assistant.Content[1].(ToolResultBlock)
	assert.Equal(t, "tu_1", result.ToolUseID, "invocation id must be preserved verbatim")
	assert.Equal(t, "files...", result.Content)
	require.NotNil(t, result.IsError)
	assert.False(t, *result.IsError)
}

func TestParseMessage_UnknownBlockPreserved(t *testing.T) {
	line := `{"type":"assistant","content":[{"type":"thinking","thinking":"hmm","signature":"sig"}]}`

	msg, err := ParseMessage([]byte(line))
	require.NoError(t, err, "unknown block kinds must not fail the message")

	assistant := msg.(*AssistantMessage)
	require.Len(t, assistant.Content, 1)

	unknown, ok := assistant.Content[0].(UnknownBlock)
	require.True(t, ok)
	assert.Equal(t, "thinking", unknown.TypeName)
	assert.Equal(t, map[string]any{"thinking": "hmm", "signature": "sig"}, unknown.Data)
}

func TestParseMessage_System(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"system","subtype":"init","session_id":"s-1"}`))
	require.NoError(t, err)

	system := msg.(*SystemMessage)
	assert.Equal(t, "init", system.Subtype())
	assert.Equal(t, "s-1", system.Data["session_id"])
}

func TestParseMessage_Result(t *testing.T) {
	line := `{"type":"result","id":"r-1","exit_code":0,"cost_usd":0.042,` +
		`"tokens_input":100,"tokens_output":25,"canceled":false}`

	msg, err := ParseMessage([]byte(line))
	require.NoError(t, err)

	result := msg.(*ResultMessage)
	assert.Equal(t, "r-1", result.ID)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	require.NotNil(t, result.CostUSD)
	assert.InDelta(t, 0.042, *result.CostUSD, 1e-9)
	require.NotNil(t, result.TokensInput)
	assert.Equal(t, 100, *result.TokensInput)
	require.NotNil(t, result.TokensOutput)
	assert.Equal(t, 25, *result.TokensOutput)
	assert.Nil(t, result.ReasoningTokens)
	require.NotNil(t, result.Canceled)
	assert.False(t, *result.Canceled)
}

func TestParseMessage_DecodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
	}{
		{"malformed json", `{"type":"result","exit_code":0`, ""},
		{"missing discriminator", `{"content":[]}`, `missing "type" field`},
		{"unknown message type", `{"type":"telemetry"}`, "unknown message type: telemetry"},
		{"assistant without content", `{"type":"assistant"}`, `missing "content" array`},
		{"content entry not object", `{"type":"user","content":["plain"]}`, "content[0] is not an object"},
		{"text block missing text", `{"type":"assistant","content":[{"type":"text"}]}`, `missing "text"`},
		{"tool_use missing id", `{"type":"assistant","content":[{"type":"tool_use","name":"Bash"}]}`, `missing "id"`},
		{"tool_result missing id", `{"type":"assistant","content":[{"type":"tool_result"}]}`, `missing "tool_use_id"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.line))
			require.Error(t, err)

			var decodeErr *JSONDecodeError
			require.True(t, errors.As(err, &decodeErr), "expected *JSONDecodeError, got %T", err)
			assert.Equal(t, tt.line, decodeErr.Line, "offending line must be carried verbatim")
			if tt.wantMsg != "" {
				assert.Contains(t, decodeErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	isError := true
	exitCode := 1
	content := "done"
	cost := 1.25
	tokens := 42
	canceled := true

	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "user",
			msg:  &UserMessage{Content: []ContentBlock{TextBlock{Text: "hello"}}},
		},
		{
			name: "assistant with every block kind",
			msg: &AssistantMessage{Content: []ContentBlock{
				TextBlock{Text: "working on it"},
				ToolUseBlock{ID: "tu_9", Name: "Edit", Input: map[string]any{"path": "main.go"}},
				ToolResultBlock{ToolUseID: "tu_9", Content: "ok", IsError: &isError},
				UnknownBlock{TypeName: "thinking", Data: map[string]any{"thinking": "..."}},
			}},
		},
		{
			name: "system",
			msg:  &SystemMessage{Data: map[string]any{"subtype": "init", "session_id": "s-9"}},
		},
		{
			name: "result",
			msg: &ResultMessage{
				ID:              "r-9",
				ExitCode:        &exitCode,
				Content:         &content,
				CostUSD:         &cost,
				TokensInput:     &tokens,
				TokensOutput:    &tokens,
				ReasoningTokens: &tokens,
				Canceled:        &canceled,
			},
		},
		{
			name: "result with everything optional absent",
			msg:  &ResultMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := json.Marshal(tt.msg)
			require.NoError(t, err)

			parsed, err := ParseMessage(line)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, parsed)
		})
	}
}

func TestMessageRoundTrip_NumericToolInput(t *testing.T) {
	// JSON numbers decode as float64; constructed inputs must use the
	// same representation for the round trip to be exact.
	msg := &AssistantMessage{Content: []ContentBlock{
		ToolUseBlock{ID: "tu_2", Name: "Bash", Input: map[string]any{"timeout": float64(30)}},
	}}

	line, err := json.Marshal(msg)
	require.NoError(t, err)
	parsed, err := ParseMessage(line)
	require.NoError(t, err)
	assert.Equal(t, msg, parsed)
}

func TestMessageType(t *testing.T) {
	assert.Equal(t, "user", (&UserMessage{}).Type())
	assert.Equal(t, "assistant", (&AssistantMessage{}).Type())
	assert.Equal(t, "system", (&SystemMessage{}).Type())
	assert.Equal(t, "result", (&ResultMessage{}).Type())
}
