package client

import (
	"context"
	"io"

	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/types"
)

// Capture is a recorded run: the events a server emitted, in order. It lives
// in memory and is supplied by the caller; nothing is persisted.
type Capture struct {
	AgentID types.AgentID
	Events  []events.Event
}

// ReplayAgent serves a captured event transcript. It makes runs deterministic
// and offline, which is what tests and re-runs want.
type ReplayAgent struct {
	capture Capture
}

// NewReplayAgent returns an agent that replays c on every run.
func NewReplayAgent(c Capture) *ReplayAgent {
	return &ReplayAgent{capture: c}
}

// AgentID implements Agent.
func (a *ReplayAgent) AgentID() types.AgentID { return a.capture.AgentID }

// Run implements Agent. Each run gets its own cursor, so one ReplayAgent can
// serve any number of runs.
func (a *ReplayAgent) Run(_ context.Context, _ *types.RunAgentInput) (EventStream, error) {
	return &replayStream{events: a.capture.Events}, nil
}

type replayStream struct {
	events []events.Event
	pos    int
	closed bool
}

func (s *replayStream) Next(ctx context.Context) (events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *replayStream) Close() error {
	s.closed = true
	return nil
}
