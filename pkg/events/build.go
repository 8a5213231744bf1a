package events

import (
	"fmt"

	"github.com/wilhg/agui/pkg/types"
)

// Outbound constructors used when synthesizing events locally, e.g. replay
// captures in tests. They enforce the invariants decode leaves to the server.

// NewTextMessageStart returns a start event for an assistant text message.
func NewTextMessageStart(id types.MessageID) *TextMessageStartEvent {
	return &TextMessageStartEvent{MessageID: id, Role: types.RoleAssistant}
}

// NewTextMessageContent returns a content event; the delta must be non-empty.
func NewTextMessageContent(id types.MessageID, delta string) (*TextMessageContentEvent, error) {
	if delta == "" {
		return nil, fmt.Errorf("text message content delta must not be empty")
	}
	return &TextMessageContentEvent{MessageID: id, Delta: delta}, nil
}

// NewToolCallArgs returns an args event; the delta must be non-empty.
func NewToolCallArgs(id types.ToolCallID, delta string) (*ToolCallArgsEvent, error) {
	if delta == "" {
		return nil, fmt.Errorf("tool call args delta must not be empty")
	}
	return &ToolCallArgsEvent{ToolCallID: id, Delta: delta}, nil
}

// WithTimestamp sets the envelope timestamp on ev and returns it.
func WithTimestamp[E Event](ev E, ts float64) E {
	ev.Base().Timestamp = &ts
	return ev
}
