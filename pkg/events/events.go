// Package events defines the closed set of protocol event variants and the
// strict decoder that maps a frame payload onto one of them.
//
// The wire discriminator is the "type" field in SCREAMING_SNAKE_CASE; payload
// fields are camelCase. The union is exhaustive by design: the run executor
// switches over every variant, and the decoder rejects anything outside the
// catalogue. Forward compatibility is carried by the explicit Raw and Custom
// variants, not by tolerating unknown discriminators.
package events

import (
	"encoding/json"

	"github.com/wilhg/agui/pkg/types"
)

// EventType is the wire discriminator value of an event variant.
type EventType string

const (
	TypeTextMessageStart           EventType = "TEXT_MESSAGE_START"
	TypeTextMessageContent         EventType = "TEXT_MESSAGE_CONTENT"
	TypeTextMessageEnd             EventType = "TEXT_MESSAGE_END"
	TypeTextMessageChunk           EventType = "TEXT_MESSAGE_CHUNK"
	TypeThinkingTextMessageStart   EventType = "THINKING_TEXT_MESSAGE_START"
	TypeThinkingTextMessageContent EventType = "THINKING_TEXT_MESSAGE_CONTENT"
	TypeThinkingTextMessageEnd     EventType = "THINKING_TEXT_MESSAGE_END"
	TypeToolCallStart              EventType = "TOOL_CALL_START"
	TypeToolCallArgs               EventType = "TOOL_CALL_ARGS"
	TypeToolCallEnd                EventType = "TOOL_CALL_END"
	TypeToolCallChunk              EventType = "TOOL_CALL_CHUNK"
	TypeToolCallResult             EventType = "TOOL_CALL_RESULT"
	TypeThinkingStart              EventType = "THINKING_START"
	TypeThinkingEnd                EventType = "THINKING_END"
	TypeStateSnapshot              EventType = "STATE_SNAPSHOT"
	TypeStateDelta                 EventType = "STATE_DELTA"
	TypeMessagesSnapshot           EventType = "MESSAGES_SNAPSHOT"
	TypeRaw                        EventType = "RAW"
	TypeCustom                     EventType = "CUSTOM"
	TypeRunStarted                 EventType = "RUN_STARTED"
	TypeRunFinished                EventType = "RUN_FINISHED"
	TypeRunError                   EventType = "RUN_ERROR"
	TypeStepStarted                EventType = "STEP_STARTED"
	TypeStepFinished               EventType = "STEP_FINISHED"
)

// Event is one decoded protocol event. Concrete variants are the *Event
// structs in this package and nothing else.
type Event interface {
	Type() EventType
	Base() *BaseEvent
}

// BaseEvent carries the optional envelope fields present on every variant.
type BaseEvent struct {
	Timestamp *float64        `json:"timestamp,omitempty"`
	RawEvent  json.RawMessage `json:"rawEvent,omitempty"`
}

// Base returns the common envelope; it makes every embedding variant an Event.
func (b *BaseEvent) Base() *BaseEvent { return b }

// TextMessageStartEvent signals the start of an assistant text message.
type TextMessageStartEvent struct {
	BaseEvent
	MessageID types.MessageID `json:"messageId"`
	Role      types.Role      `json:"role"`
}

func (*TextMessageStartEvent) Type() EventType { return TypeTextMessageStart }

// TextMessageContentEvent carries one content delta of an in-progress message.
type TextMessageContentEvent struct {
	BaseEvent
	MessageID types.MessageID `json:"messageId"`
	Delta     string          `json:"delta"`
}

func (*TextMessageContentEvent) Type() EventType { return TypeTextMessageContent }

// TextMessageEndEvent signals the completion of a text message.
type TextMessageEndEvent struct {
	BaseEvent
	MessageID types.MessageID `json:"messageId"`
}

func (*TextMessageEndEvent) Type() EventType { return TypeTextMessageEnd }

// TextMessageChunkEvent combines start, content, and possibly end information
// in a single event; every field may be absent.
type TextMessageChunkEvent struct {
	BaseEvent
	MessageID types.MessageID `json:"messageId,omitempty"`
	Role      types.Role      `json:"role,omitempty"`
	Delta     string          `json:"delta,omitempty"`
}

func (*TextMessageChunkEvent) Type() EventType { return TypeTextMessageChunk }

// ThinkingTextMessageStartEvent signals the start of streamed thinking text.
type ThinkingTextMessageStartEvent struct {
	BaseEvent
}

func (*ThinkingTextMessageStartEvent) Type() EventType { return TypeThinkingTextMessageStart }

// ThinkingTextMessageContentEvent carries one delta of thinking text.
type ThinkingTextMessageContentEvent struct {
	BaseEvent
	Delta string `json:"delta"`
}

func (*ThinkingTextMessageContentEvent) Type() EventType { return TypeThinkingTextMessageContent }

// ThinkingTextMessageEndEvent signals the end of streamed thinking text.
type ThinkingTextMessageEndEvent struct {
	BaseEvent
}

func (*ThinkingTextMessageEndEvent) Type() EventType { return TypeThinkingTextMessageEnd }

// ToolCallStartEvent signals the start of a tool call.
type ToolCallStartEvent struct {
	BaseEvent
	ToolCallID      types.ToolCallID `json:"toolCallId"`
	ToolCallName    string           `json:"toolCallName"`
	ParentMessageID types.MessageID  `json:"parentMessageId,omitempty"`
}

func (*ToolCallStartEvent) Type() EventType { return TypeToolCallStart }

// ToolCallArgsEvent carries one delta of a tool call's argument string.
type ToolCallArgsEvent struct {
	BaseEvent
	ToolCallID types.ToolCallID `json:"toolCallId"`
	Delta      string           `json:"delta"`
}

func (*ToolCallArgsEvent) Type() EventType { return TypeToolCallArgs }

// ToolCallEndEvent signals that a tool call's arguments are complete.
type ToolCallEndEvent struct {
	BaseEvent
	ToolCallID types.ToolCallID `json:"toolCallId"`
}

func (*ToolCallEndEvent) Type() EventType { return TypeToolCallEnd }

// ToolCallChunkEvent combines start, args, and possibly end information in a
// single event; every field may be absent.
type ToolCallChunkEvent struct {
	BaseEvent
	ToolCallID      types.ToolCallID `json:"toolCallId,omitempty"`
	ToolCallName    string           `json:"toolCallName,omitempty"`
	ParentMessageID types.MessageID  `json:"parentMessageId,omitempty"`
	Delta           string           `json:"delta,omitempty"`
}

func (*ToolCallChunkEvent) Type() EventType { return TypeToolCallChunk }

// ToolCallResultEvent carries the result a tool produced.
type ToolCallResultEvent struct {
	BaseEvent
	MessageID  types.MessageID  `json:"messageId"`
	ToolCallID types.ToolCallID `json:"toolCallId"`
	Content    string           `json:"content"`
	Role       types.Role       `json:"role,omitempty"`
}

func (*ToolCallResultEvent) Type() EventType { return TypeToolCallResult }

// ThinkingStartEvent signals the start of a deliberate thinking phase.
type ThinkingStartEvent struct {
	BaseEvent
	Title string `json:"title,omitempty"`
}

func (*ThinkingStartEvent) Type() EventType { return TypeThinkingStart }

// ThinkingEndEvent signals the end of a thinking phase.
type ThinkingEndEvent struct {
	BaseEvent
}

func (*ThinkingEndEvent) Type() EventType { return TypeThinkingEnd }

// StateSnapshotEvent replaces the application state wholesale. The snapshot
// stays raw here; the run executor deserializes it into the caller's type.
type StateSnapshotEvent struct {
	BaseEvent
	Snapshot json.RawMessage `json:"snapshot"`
}

func (*StateSnapshotEvent) Type() EventType { return TypeStateSnapshot }

// StateDeltaEvent carries ordered JSON Patch (RFC 6902) operations.
type StateDeltaEvent struct {
	BaseEvent
	Delta []json.RawMessage `json:"delta"`
}

func (*StateDeltaEvent) Type() EventType { return TypeStateDelta }

// MessagesSnapshotEvent carries a complete transcript snapshot.
type MessagesSnapshotEvent struct {
	BaseEvent
	Messages []types.Message `json:"messages"`
}

func (*MessagesSnapshotEvent) Type() EventType { return TypeMessagesSnapshot }

// RawEvent wraps an arbitrary event from an external source.
type RawEvent struct {
	BaseEvent
	Event  json.RawMessage `json:"event"`
	Source string          `json:"source,omitempty"`
}

func (*RawEvent) Type() EventType { return TypeRaw }

// CustomEvent carries an application-specific event with arbitrary data.
type CustomEvent struct {
	BaseEvent
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func (*CustomEvent) Type() EventType { return TypeCustom }

// RunStartedEvent signals that a run began executing.
type RunStartedEvent struct {
	BaseEvent
	ThreadID types.ThreadID `json:"threadId"`
	RunID    types.RunID    `json:"runId"`
}

func (*RunStartedEvent) Type() EventType { return TypeRunStarted }

// RunFinishedEvent signals that a run completed, optionally with a result.
type RunFinishedEvent struct {
	BaseEvent
	ThreadID types.ThreadID  `json:"threadId"`
	RunID    types.RunID     `json:"runId"`
	Result   json.RawMessage `json:"result,omitempty"`
}

func (*RunFinishedEvent) Type() EventType { return TypeRunFinished }

// RunErrorEvent signals that the run failed server-side.
type RunErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (*RunErrorEvent) Type() EventType { return TypeRunError }

// StepStartedEvent signals that a named step began.
type StepStartedEvent struct {
	BaseEvent
	StepName string `json:"stepName"`
}

func (*StepStartedEvent) Type() EventType { return TypeStepStarted }

// StepFinishedEvent signals that a named step completed.
type StepFinishedEvent struct {
	BaseEvent
	StepName string `json:"stepName"`
}

func (*StepFinishedEvent) Type() EventType { return TypeStepFinished }
