// Package types defines the wire-level data model for the agent interaction
// protocol: identifiers, messages, tool calls, the tool/context catalog, and
// the run input envelope.
//
// All types serialize to the protocol's camelCase JSON field names. Identifiers
// are opaque string tokens; distinct newtypes prevent mixing them up at compile
// time while keeping equality and map-key semantics of the underlying value.
package types

import "github.com/google/uuid"

// AgentID identifies an agent instance.
type AgentID string

// ThreadID identifies a conversation thread across runs.
type ThreadID string

// RunID identifies a single run within a thread.
type RunID string

// MessageID identifies a message within a run's transcript.
type MessageID string

// ToolCallID identifies a tool call generation. Unlike the other identifiers
// it is not UUID-shaped; providers expect the short "call_xxxxxxxx" form.
type ToolCallID string

// NewAgentID returns a random agent identifier.
func NewAgentID() AgentID { return AgentID(uuid.NewString()) }

// NewThreadID returns a random thread identifier.
func NewThreadID() ThreadID { return ThreadID(uuid.NewString()) }

// NewRunID returns a random run identifier.
func NewRunID() RunID { return RunID(uuid.NewString()) }

// NewMessageID returns a random message identifier.
func NewMessageID() MessageID { return MessageID(uuid.NewString()) }

// NewToolCallID returns a random tool call identifier of the form "call_xxxxxxxx".
func NewToolCallID() ToolCallID { return ToolCallID("call_" + uuid.NewString()[:8]) }
