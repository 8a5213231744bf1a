package types

import "encoding/json"

// CallTypeFunction is the only tool call kind the protocol defines.
const CallTypeFunction = "function"

// FunctionCall is the name and raw argument payload of a tool invocation.
// Arguments accumulates streamed deltas by concatenation and is not guaranteed
// to be valid JSON until the corresponding end event arrives.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation attributed to an assistant message.
type ToolCall struct {
	ID       ToolCallID   `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// NewToolCall returns a function-typed tool call.
func NewToolCall(id ToolCallID, fn FunctionCall) ToolCall {
	return ToolCall{ID: id, Type: CallTypeFunction, Function: fn}
}

// Tool describes one entry of the tool catalog sent with a run.
// Parameters is a JSON Schema document kept opaque on the client; the server
// interprets it.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
