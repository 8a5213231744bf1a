package client

import (
	"context"

	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/types"
)

// SubscriberParams is the read-only view a subscriber receives at every hook:
// the canonical transcript and state as of the dispatch point, plus the
// immutable run input. Subscribers must not mutate these; they influence the
// run only through the StateMutation they return.
type SubscriberParams[S any] struct {
	Messages []types.Message
	State    S
	Input    *types.RunAgentInput
}

// StateMutation is a subscriber's proposed change to canonical state. A nil
// Messages slice means "no replacement"; to clear the transcript return an
// allocated empty slice. A nil State pointer likewise means "no replacement".
// StopPropagation applies this mutation and halts merging of later
// subscribers' mutations for the current event.
type StateMutation[S any] struct {
	Messages        []types.Message
	State           *S
	StopPropagation bool
}

func (m StateMutation[S]) empty() bool {
	return m.Messages == nil && m.State == nil
}

// Subscriber observes one run. Hooks execute strictly sequentially in
// registration order at each dispatch point; merge order is significant, so
// they are never invoked concurrently.
//
// Embed BaseSubscriber to implement only the hooks you care about.
type Subscriber[S any] interface {
	// Lifecycle.
	OnRunInitialized(ctx context.Context, params SubscriberParams[S]) (StateMutation[S], error)
	OnRunFailed(ctx context.Context, runErr error, params SubscriberParams[S]) (StateMutation[S], error)
	OnRunFinalized(ctx context.Context, params SubscriberParams[S]) (StateMutation[S], error)

	// OnEvent fires for every event before its specific hook.
	OnEvent(ctx context.Context, ev events.Event, params SubscriberParams[S]) (StateMutation[S], error)

	OnRunStarted(ctx context.Context, ev *events.RunStartedEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnRunFinished(ctx context.Context, ev *events.RunFinishedEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnRunError(ctx context.Context, ev *events.RunErrorEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnStepStarted(ctx context.Context, ev *events.StepStartedEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnStepFinished(ctx context.Context, ev *events.StepFinishedEvent, params SubscriberParams[S]) (StateMutation[S], error)

	OnTextMessageStart(ctx context.Context, ev *events.TextMessageStartEvent, params SubscriberParams[S]) (StateMutation[S], error)
	// buffer is the content accumulated so far for the message under construction.
	OnTextMessageContent(ctx context.Context, ev *events.TextMessageContentEvent, buffer string, params SubscriberParams[S]) (StateMutation[S], error)
	OnTextMessageEnd(ctx context.Context, ev *events.TextMessageEndEvent, buffer string, params SubscriberParams[S]) (StateMutation[S], error)
	OnTextMessageChunk(ctx context.Context, ev *events.TextMessageChunkEvent, params SubscriberParams[S]) (StateMutation[S], error)

	OnThinkingStart(ctx context.Context, ev *events.ThinkingStartEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnThinkingEnd(ctx context.Context, ev *events.ThinkingEndEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnThinkingTextMessageStart(ctx context.Context, ev *events.ThinkingTextMessageStartEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnThinkingTextMessageContent(ctx context.Context, ev *events.ThinkingTextMessageContentEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnThinkingTextMessageEnd(ctx context.Context, ev *events.ThinkingTextMessageEndEvent, params SubscriberParams[S]) (StateMutation[S], error)

	OnToolCallStart(ctx context.Context, ev *events.ToolCallStartEvent, params SubscriberParams[S]) (StateMutation[S], error)
	// buffer is the raw argument string accumulated so far, name the call's
	// function name, partialArgs a best-effort parse of buffer (nil until the
	// buffer is a complete JSON object).
	OnToolCallArgs(ctx context.Context, ev *events.ToolCallArgsEvent, buffer, name string, partialArgs map[string]any, params SubscriberParams[S]) (StateMutation[S], error)
	OnToolCallEnd(ctx context.Context, ev *events.ToolCallEndEvent, name string, args map[string]any, params SubscriberParams[S]) (StateMutation[S], error)
	OnToolCallChunk(ctx context.Context, ev *events.ToolCallChunkEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnToolCallResult(ctx context.Context, ev *events.ToolCallResultEvent, params SubscriberParams[S]) (StateMutation[S], error)

	OnStateSnapshot(ctx context.Context, ev *events.StateSnapshotEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnStateDelta(ctx context.Context, ev *events.StateDeltaEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnMessagesSnapshot(ctx context.Context, ev *events.MessagesSnapshotEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnRaw(ctx context.Context, ev *events.RawEvent, params SubscriberParams[S]) (StateMutation[S], error)
	OnCustom(ctx context.Context, ev *events.CustomEvent, params SubscriberParams[S]) (StateMutation[S], error)

	// Change notifications. These fire after the merged mutation is applied
	// and cannot themselves mutate state.
	OnMessagesChanged(ctx context.Context, params SubscriberParams[S]) error
	OnStateChanged(ctx context.Context, params SubscriberParams[S]) error
	OnNewMessage(ctx context.Context, msg *types.Message, params SubscriberParams[S]) error
	OnNewToolCall(ctx context.Context, call *types.ToolCall, params SubscriberParams[S]) error
}

// BaseSubscriber is a no-op Subscriber. Embed it and override selectively.
type BaseSubscriber[S any] struct{}

var _ Subscriber[any] = BaseSubscriber[any]{}

func (BaseSubscriber[S]) OnRunInitialized(context.Context, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRunFailed(context.Context, error, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRunFinalized(context.Context, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnEvent(context.Context, events.Event, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRunStarted(context.Context, *events.RunStartedEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRunFinished(context.Context, *events.RunFinishedEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRunError(context.Context, *events.RunErrorEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnStepStarted(context.Context, *events.StepStartedEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnStepFinished(context.Context, *events.StepFinishedEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnTextMessageStart(context.Context, *events.TextMessageStartEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnTextMessageContent(_ context.Context, _ *events.TextMessageContentEvent, _ string, _ SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnTextMessageEnd(_ context.Context, _ *events.TextMessageEndEvent, _ string, _ SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnTextMessageChunk(context.Context, *events.TextMessageChunkEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnThinkingStart(context.Context, *events.ThinkingStartEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnThinkingEnd(context.Context, *events.ThinkingEndEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnThinkingTextMessageStart(context.Context, *events.ThinkingTextMessageStartEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnThinkingTextMessageContent(context.Context, *events.ThinkingTextMessageContentEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnThinkingTextMessageEnd(context.Context, *events.ThinkingTextMessageEndEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnToolCallStart(context.Context, *events.ToolCallStartEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnToolCallArgs(_ context.Context, _ *events.ToolCallArgsEvent, _, _ string, _ map[string]any, _ SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnToolCallEnd(_ context.Context, _ *events.ToolCallEndEvent, _ string, _ map[string]any, _ SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnToolCallChunk(context.Context, *events.ToolCallChunkEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnToolCallResult(context.Context, *events.ToolCallResultEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnStateSnapshot(context.Context, *events.StateSnapshotEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnStateDelta(context.Context, *events.StateDeltaEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnMessagesSnapshot(context.Context, *events.MessagesSnapshotEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnRaw(context.Context, *events.RawEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnCustom(context.Context, *events.CustomEvent, SubscriberParams[S]) (StateMutation[S], error) {
	return StateMutation[S]{}, nil
}

func (BaseSubscriber[S]) OnMessagesChanged(context.Context, SubscriberParams[S]) error { return nil }

func (BaseSubscriber[S]) OnStateChanged(context.Context, SubscriberParams[S]) error { return nil }

func (BaseSubscriber[S]) OnNewMessage(context.Context, *types.Message, SubscriberParams[S]) error {
	return nil
}

func (BaseSubscriber[S]) OnNewToolCall(context.Context, *types.ToolCall, SubscriberParams[S]) error {
	return nil
}
