package types

import "encoding/json"

// RunAgentInput is the outbound request body for one run. It is immutable for
// the run's duration from the caller's point of view.
//
// State and ForwardedProps are kept as raw JSON here; the typed view lives in
// the client package, which marshals the caller's state into this envelope.
type RunAgentInput struct {
	ThreadID       ThreadID        `json:"threadId"`
	RunID          RunID           `json:"runId"`
	State          json.RawMessage `json:"state"`
	Messages       []Message       `json:"messages"`
	Tools          []Tool          `json:"tools"`
	Context        []Context       `json:"context"`
	ForwardedProps json.RawMessage `json:"forwardedProps"`
}
