package model

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single tool invocation requested by the agent. Arguments are
// kept as raw JSON so they can be edited by a reviewer without a round-trip
// through typed structs.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Args decodes the call arguments into a generic map. A missing or empty
// payload yields an empty map.
func (c *ToolCall) Args() map[string]interface{} {
	ret := map[string]interface{}{}
	if len(c.Arguments) > 0 {
		_ = json.Unmarshal(c.Arguments, &ret)
	}
	return ret
}

// Message is one entry of an agent conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"` // set on tool result messages
	ToolName   string     `json:"toolName,omitempty"`
}

// NewToolResult builds the tool-result message answering the given call.
func NewToolResult(call ToolCall, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: call.ID, ToolName: call.Name}
}

// Todo statuses recognised by the task-list tool.
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// Todo is one entry of the agent's task list.
type Todo struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}
