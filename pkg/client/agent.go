// Package client runs agents against the event protocol: it owns the run
// loop that drives an agent's event stream through the reducer, dispatches
// subscribers, and returns the run outcome.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/types"
)

// EventStream yields decoded protocol events in arrival order. Next returns
// io.EOF once the stream ends gracefully. There is no cancellation primitive
// beyond Close, which aborts the underlying byte stream.
type EventStream interface {
	Next(ctx context.Context) (events.Event, error)
	Close() error
}

// Agent produces an event stream for a run. Implementations carry the
// transport; the run loop in RunAgent carries the semantics.
type Agent interface {
	Run(ctx context.Context, input *types.RunAgentInput) (EventStream, error)
	// AgentID identifies the agent instance, or "" when it has none.
	AgentID() types.AgentID
}

// RunParams configures one run. The zero value is usable; helpers below are
// chainable for the common cases.
type RunParams[S any] struct {
	ThreadID       types.ThreadID
	RunID          types.RunID
	Messages       []types.Message
	State          S
	Tools          []types.Tool
	Context        []types.Context
	ForwardedProps json.RawMessage
}

// NewRunParams returns empty run parameters for state type S.
func NewRunParams[S any]() RunParams[S] { return RunParams[S]{} }

// WithThreadID pins the thread id; a fresh one is generated per run otherwise.
func (p RunParams[S]) WithThreadID(id types.ThreadID) RunParams[S] {
	p.ThreadID = id
	return p
}

// WithRunID pins the run id; a fresh one is generated per run otherwise.
func (p RunParams[S]) WithRunID(id types.RunID) RunParams[S] {
	p.RunID = id
	return p
}

// WithState sets the initial typed state.
func (p RunParams[S]) WithState(state S) RunParams[S] {
	p.State = state
	return p
}

// WithForwardedProps sets the opaque pass-through payload.
func (p RunParams[S]) WithForwardedProps(props json.RawMessage) RunParams[S] {
	p.ForwardedProps = props
	return p
}

// AddMessage appends a message to the initial transcript.
func (p RunParams[S]) AddMessage(msg types.Message) RunParams[S] {
	p.Messages = append(p.Messages, msg)
	return p
}

// User appends a user message with a random id.
func (p RunParams[S]) User(content string) RunParams[S] {
	return p.AddMessage(types.NewUserMessage(content))
}

// AddTool appends a tool to the catalog sent with the run.
func (p RunParams[S]) AddTool(tool types.Tool) RunParams[S] {
	p.Tools = append(p.Tools, tool)
	return p
}

// AddContext appends a context entry sent with the run.
func (p RunParams[S]) AddContext(ctx types.Context) RunParams[S] {
	p.Context = append(p.Context, ctx)
	return p
}

// RunResult is the outcome of a completed run.
type RunResult[S any] struct {
	// Result is the optional payload of the finishing event; nil when the
	// server sent none.
	Result json.RawMessage
	// NewMessages are the messages introduced during the run, by id-set
	// difference against the initial transcript.
	NewMessages []types.Message
	// NewState is the final typed state.
	NewState S
}

// RunAgent executes one run: it builds the outbound input from params, opens
// the agent's event stream, and processes events strictly one at a time in
// arrival order until the stream ends. Subscribers attach for the duration of
// the run and execute sequentially in the order given.
//
// On failure every subscriber receives a best-effort OnRunFailed before the
// error returns; OnRunFinalized fires on every terminal path.
func RunAgent[S any](ctx context.Context, agent Agent, params RunParams[S], subs ...Subscriber[S]) (*RunResult[S], error) {
	input, err := buildInput(params)
	if err != nil {
		return nil, err
	}
	if err := ValidateTools(params.Tools); err != nil {
		return nil, err
	}

	tr := otel.Tracer("client/run")
	ctx, span := tr.Start(ctx, "Agent.RunAgent", trace.WithAttributes(
		attribute.String("thread.id", string(input.ThreadID)),
		attribute.String("run.id", string(input.RunID)),
		attribute.String("agent.id", string(agent.AgentID())),
	))
	defer span.End()

	log := slog.Default().With(
		slog.String("thread_id", string(input.ThreadID)),
		slog.String("run_id", string(input.RunID)))

	exec := newExecutor(input, params.State, subs, log)

	finish := func(runErr error) (*RunResult[S], error) {
		if runErr != nil {
			span.RecordError(runErr)
			if failErr := exec.fail(ctx, runErr); failErr != nil {
				runErr = failErr
			}
			if finErr := exec.finalize(ctx); finErr != nil {
				log.ErrorContext(ctx, "finalize after failure", slog.String("error", finErr.Error()))
			}
			return nil, runErr
		}
		if err := exec.finalize(ctx); err != nil {
			span.RecordError(err)
			return nil, err
		}
		newMessages := make([]types.Message, 0)
		initial := make(map[types.MessageID]struct{}, len(params.Messages))
		for _, m := range params.Messages {
			initial[m.ID] = struct{}{}
		}
		for _, m := range exec.messages {
			if _, ok := initial[m.ID]; !ok {
				newMessages = append(newMessages, m)
			}
		}
		return &RunResult[S]{Result: exec.result, NewMessages: newMessages, NewState: exec.state}, nil
	}

	if err := exec.initialize(ctx); err != nil {
		return finish(err)
	}

	stream, err := agent.Run(ctx, input)
	if err != nil {
		return finish(err)
	}
	defer stream.Close()

	var count int64
	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			span.SetAttributes(attribute.Int64("event.count", count))
			return finish(err)
		}
		count++
		log.DebugContext(ctx, "event", slog.String("type", string(ev.Type())))
		mutation, err := exec.handleEvent(ctx, ev)
		if err != nil {
			return finish(err)
		}
		if err := exec.applyMutation(ctx, mutation); err != nil {
			return finish(err)
		}
	}
	span.SetAttributes(attribute.Int64("event.count", count))
	return finish(nil)
}

// buildInput materializes the wire input, generating thread/run ids when the
// caller left them unset and marshaling the typed state.
func buildInput[S any](params RunParams[S]) (*types.RunAgentInput, error) {
	state, err := json.Marshal(params.State)
	if err != nil {
		return nil, errmodel.JSON(err)
	}
	threadID := params.ThreadID
	if threadID == "" {
		threadID = types.NewThreadID()
	}
	runID := params.RunID
	if runID == "" {
		runID = types.NewRunID()
	}
	props := params.ForwardedProps
	if props == nil {
		props = json.RawMessage("null")
	}
	return &types.RunAgentInput{
		ThreadID:       threadID,
		RunID:          runID,
		State:          state,
		Messages:       params.Messages,
		Tools:          params.Tools,
		Context:        params.Context,
		ForwardedProps: props,
	}, nil
}
