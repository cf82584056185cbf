package claudecode

import (
	"encoding/json"
	"fmt"
)

// Message is one top-level unit of the CLI's structured output. The
// concrete types are UserMessage, AssistantMessage, SystemMessage, and
// ResultMessage; the "type" field on the wire discriminates them.
type Message interface {
	// Type returns the wire discriminator for this message.
	Type() string
}

// ContentBlock is one unit within a message's content array. The concrete
// types are TextBlock, ToolUseBlock, ToolResultBlock, and UnknownBlock.
type ContentBlock interface {
	// BlockType returns the wire discriminator for this block.
	BlockType() string
}

// UserMessage is a role-tagged payload originating from the caller side
// of the conversation.
type UserMessage struct {
	Content []ContentBlock
}

func (*UserMessage) Type() string { return "user" }

// AssistantMessage is an ordered sequence of content blocks produced by
// the model for one turn.
type AssistantMessage struct {
	Content []ContentBlock
}

func (*AssistantMessage) Type() string { return "assistant" }

// SystemMessage is a side-channel informational payload, e.g. session
// metadata. Its fields are opaque to the transport and preserved verbatim
// in Data (everything except the "type" discriminator).
type SystemMessage struct {
	Data map[string]any
}

func (*SystemMessage) Type() string { return "system" }

// Subtype returns the "subtype" field if present, e.g. "init".
func (m *SystemMessage) Subtype() string {
	s, _ := m.Data["subtype"].(string)
	return s
}

// ResultMessage is the terminal status for a whole query. At most one
// appears per stream, always last.
type ResultMessage struct {
	ID              string   `json:"id,omitempty"`
	ExitCode        *int     `json:"exit_code,omitempty"`
	Content         *string  `json:"content,omitempty"`
	CostUSD         *float64 `json:"cost_usd,omitempty"`
	TokensInput     *int     `json:"tokens_input,omitempty"`
	TokensOutput    *int     `json:"tokens_output,omitempty"`
	ReasoningTokens *int     `json:"reasoning_tokens,omitempty"`
	Canceled        *bool    `json:"canceled,omitempty"`
}

func (*ResultMessage) Type() string { return "result" }

// TextBlock is a span of model output text.
type TextBlock struct {
	Text string
}

func (TextBlock) BlockType() string { return "text" }

// ToolUseBlock is a tool invocation requested by the model. ID is unique
// per invocation and is preserved verbatim so consumers can correlate the
// matching ToolResultBlock.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

func (ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultBlock is the outcome of a prior tool invocation. ToolUseID
// names the ToolUseBlock it responds to. Content is a string or a
// structured payload, as emitted by the CLI.
type ToolResultBlock struct {
	ToolUseID string
	Content   any
	IsError   *bool
}

func (ToolResultBlock) BlockType() string { return "tool_result" }

// UnknownBlock preserves a content block whose discriminator this SDK
// does not recognize, so that newer CLI versions degrade gracefully
// instead of failing the whole message. Data holds every field except
// the discriminator.
type UnknownBlock struct {
	TypeName string
	Data     map[string]any
}

func (b UnknownBlock) BlockType() string { return b.TypeName }

// ParseMessage decodes one NDJSON line into a typed Message.
//
// All failures are reported as *JSONDecodeError: malformed JSON, a
// missing or unrecognized "type" discriminator, and missing or mistyped
// required sub-fields. Unknown top-level discriminators are a hard error;
// there is no safe fallback for a whole message.
func ParseMessage(line []byte) (Message, error) {
	var data map[string]any
	if err := json.Unmarshal(line, &data); err != nil {
		return nil, &JSONDecodeError{
			Message: err.Error(),
			Line:    string(line),
			Err:     err,
		}
	}

	msgType, ok := data["type"].(string)
	if !ok {
		return nil, decodeErr(line, `missing "type" field`)
	}

	switch msgType {
	case "user":
		blocks, err := parseContent(line, data)
		if err != nil {
			return nil, err
		}
		return &UserMessage{Content: blocks}, nil
	case "assistant":
		blocks, err := parseContent(line, data)
		if err != nil {
			return nil, err
		}
		return &AssistantMessage{Content: blocks}, nil
	case "system":
		delete(data, "type")
		return &SystemMessage{Data: data}, nil
	case "result":
		return parseResult(data), nil
	default:
		return nil, decodeErr(line, "unknown message type: %s", msgType)
	}
}

func parseContent(line []byte, data map[string]any) ([]ContentBlock, error) {
	raw, ok := data["content"].([]any)
	if !ok {
		return nil, decodeErr(line, `missing "content" array`)
	}

	blocks := make([]ContentBlock, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, decodeErr(line, "content[%d] is not an object", i)
		}
		block, err := parseBlock(line, i, obj)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func parseBlock(line []byte, i int, obj map[string]any) (ContentBlock, error) {
	blockType, ok := obj["type"].(string)
	if !ok {
		return nil, decodeErr(line, `content[%d] missing "type" field`, i)
	}

	switch blockType {
	case "text":
		text, ok := obj["text"].(string)
		if !ok {
			return nil, decodeErr(line, `content[%d] text block missing "text"`, i)
		}
		return TextBlock{Text: text}, nil

	case "tool_use":
		id, ok := obj["id"].(string)
		if !ok {
			return nil, decodeErr(line, `content[%d] tool_use block missing "id"`, i)
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, decodeErr(line, `content[%d] tool_use block missing "name"`, i)
		}
		input, _ := obj["input"].(map[string]any)
		return ToolUseBlock{ID: id, Name: name, Input: input}, nil

	case "tool_result":
		id, ok := obj["tool_use_id"].(string)
		if !ok {
			return nil, decodeErr(line, `content[%d] tool_result block missing "tool_use_id"`, i)
		}
		block := ToolResultBlock{ToolUseID: id, Content: obj["content"]}
		if isErr, ok := obj["is_error"].(bool); ok {
			block.IsError = &isErr
		}
		return block, nil

	default:
		// Forward compatibility: newer CLI versions may emit block kinds
		// this SDK predates. Preserve them rather than failing the message.
		delete(obj, "type")
		return UnknownBlock{TypeName: blockType, Data: obj}, nil
	}
}

func parseResult(data map[string]any) *ResultMessage {
	msg := &ResultMessage{}
	msg.ID, _ = data["id"].(string)

	if v, ok := data["exit_code"].(float64); ok {
		code := int(v)
		msg.ExitCode = &code
	}
	if v, ok := data["content"].(string); ok {
		msg.Content = &v
	}
	if v, ok := data["cost_usd"].(float64); ok {
		msg.CostUSD = &v
	}
	if v, ok := data["tokens_input"].(float64); ok {
		n := int(v)
		msg.TokensInput = &n
	}
	if v, ok := data["tokens_output"].(float64); ok {
		n := int(v)
		msg.TokensOutput = &n
	}
	if v, ok := data["reasoning_tokens"].(float64); ok {
		n := int(v)
		msg.ReasoningTokens = &n
	}
	if v, ok := data["canceled"].(bool); ok {
		msg.Canceled = &v
	}

	return msg
}

func decodeErr(line []byte, format string, args ...any) *JSONDecodeError {
	return &JSONDecodeError{
		Message: fmt.Sprintf(format, args...),
		Line:    string(line),
	}
}

// MarshalJSON emits the wire form, including the "type" discriminator.
func (m *UserMessage) MarshalJSON() ([]byte, error) {
	return marshalContentMessage("user", m.Content)
}

// MarshalJSON emits the wire form, including the "type" discriminator.
func (m *AssistantMessage) MarshalJSON() ([]byte, error) {
	return marshalContentMessage("assistant", m.Content)
}

// MarshalJSON emits the preserved payload with the "type" discriminator
// restored.
func (m *SystemMessage) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Data)+1)
	for k, v := range m.Data {
		obj[k] = v
	}
	obj["type"] = "system"
	return json.Marshal(obj)
}

// MarshalJSON emits the wire form, including the "type" discriminator.
func (m *ResultMessage) MarshalJSON() ([]byte, error) {
	type alias ResultMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "result", alias: alias(*m)})
}

func marshalContentMessage(msgType string, content []ContentBlock) ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":    msgType,
		"content": marshalBlocks(content),
	})
}

func marshalBlocks(blocks []ContentBlock) []map[string]any {
	out := make([]map[string]any, len(blocks))
	for i, b := range blocks {
		out[i] = marshalBlock(b)
	}
	return out
}

func marshalBlock(b ContentBlock) map[string]any {
	switch block := b.(type) {
	case TextBlock:
		return map[string]any{"type": "text", "text": block.Text}
	case ToolUseBlock:
		obj := map[string]any{"type": "tool_use", "id": block.ID, "name": block.Name}
		if block.Input != nil {
			obj["input"] = block.Input
		}
		return obj
	case ToolResultBlock:
		obj := map[string]any{"type": "tool_result", "tool_use_id": block.ToolUseID}
		if block.Content != nil {
			obj["content"] = block.Content
		}
		if block.IsError != nil {
			obj["is_error"] = *block.IsError
		}
		return obj
	case UnknownBlock:
		obj := make(map[string]any, len(block.Data)+1)
		for k, v := range block.Data {
			obj[k] = v
		}
		obj["type"] = block.TypeName
		return obj
	default:
		return map[string]any{"type": b.BlockType()}
	}
}
