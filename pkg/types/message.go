package types

import (
	"encoding/json"
	"fmt"
)

// Role is the message author role. The set is closed; decoding any other
// value is an error.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the five protocol roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleSystem, RoleAssistant, RoleUser, RoleTool:
		return true
	}
	return false
}

// Message is one entry in a run's transcript, polymorphic over Role.
//
// Field usage by role:
//   - developer/system/user: Content is set (never nil).
//   - assistant: Content is optional and may legitimately be absent, empty, or
//     filled as the message is built incrementally; ToolCalls holds the ordered
//     tool invocations attributed to the message.
//   - tool: Content is set, ToolCallID back-references the originating call,
//     Error optionally carries the tool failure text.
//
// Content is a pointer so that "absent" and "empty string" remain distinct
// states on the wire, which the run executor relies on.
type Message struct {
	ID         MessageID  `json:"id"`
	Role       Role       `json:"role"`
	Content    *string    `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID ToolCallID `json:"toolCallId,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// UnmarshalJSON decodes a message and rejects unknown roles.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if !Role(a.Role).Valid() {
		return fmt.Errorf("message %s: unknown role %q", a.ID, a.Role)
	}
	*m = Message(a)
	return nil
}

// NewDeveloperMessage returns a developer message with a random id.
func NewDeveloperMessage(content string) Message {
	return Message{ID: NewMessageID(), Role: RoleDeveloper, Content: &content}
}

// NewSystemMessage returns a system message with a random id.
func NewSystemMessage(content string) Message {
	return Message{ID: NewMessageID(), Role: RoleSystem, Content: &content}
}

// NewAssistantMessage returns an assistant message with a random id.
func NewAssistantMessage(content string) Message {
	return Message{ID: NewMessageID(), Role: RoleAssistant, Content: &content}
}

// NewUserMessage returns a user message with a random id.
func NewUserMessage(content string) Message {
	return Message{ID: NewMessageID(), Role: RoleUser, Content: &content}
}

// NewToolMessage returns a tool result message with a random id.
func NewToolMessage(content string, toolCallID ToolCallID) Message {
	return Message{ID: NewMessageID(), Role: RoleTool, Content: &content, ToolCallID: toolCallID}
}

// ContentString returns the message content, or "" when absent.
func (m *Message) ContentString() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// AppendContent appends delta to the message content, materializing an empty
// content first when it is absent.
func (m *Message) AppendContent(delta string) {
	if m.Content == nil {
		s := delta
		m.Content = &s
		return
	}
	s := *m.Content + delta
	m.Content = &s
}

// LastToolCall returns the message's most recent tool call, or nil.
func (m *Message) LastToolCall() *ToolCall {
	if len(m.ToolCalls) == 0 {
		return nil
	}
	return &m.ToolCalls[len(m.ToolCalls)-1]
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Content != nil {
		s := *m.Content
		out.Content = &s
	}
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(out.ToolCalls, m.ToolCalls)
	}
	return out
}

// CloneMessages returns a deep copy of a transcript.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
