package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/types"
)

type counterState struct {
	Counter int `json:"counter"`
}

func newTestExecutor[S any](t *testing.T, initial []types.Message, state S, subs ...Subscriber[S]) *executor[S] {
	t.Helper()
	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	input := &types.RunAgentInput{
		ThreadID: types.NewThreadID(),
		RunID:    types.NewRunID(),
		State:    raw,
		Messages: initial,
	}
	return newExecutor(input, state, subs, slog.Default())
}

func dispatch[S any](t *testing.T, e *executor[S], evs ...events.Event) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range evs {
		m, err := e.handleEvent(ctx, ev)
		if err != nil {
			t.Fatalf("handleEvent(%s): %v", ev.Type(), err)
		}
		if err := e.applyMutation(ctx, m); err != nil {
			t.Fatalf("applyMutation(%s): %v", ev.Type(), err)
		}
	}
}

func TestTextMessageReconstruction(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{})
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.TextMessageContentEvent{MessageID: "m1", Delta: "He"},
		&events.TextMessageContentEvent{MessageID: "m1", Delta: "llo"},
		&events.TextMessageEndEvent{MessageID: "m1"},
	)
	if len(e.messages) != 1 {
		t.Fatalf("messages=%d", len(e.messages))
	}
	m := e.messages[0]
	if m.ID != "m1" || m.Role != types.RoleAssistant || m.ContentString() != "Hello" {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestStateSnapshotReplacesState(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{Counter: 1})
	dispatch[counterState](t, e, &events.StateSnapshotEvent{Snapshot: json.RawMessage(`{"counter":7}`)})
	if e.state.Counter != 7 {
		t.Fatalf("counter=%d", e.state.Counter)
	}
}

func TestStateDeltaPatch(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{Counter: 0})
	dispatch[counterState](t, e, &events.StateDeltaEvent{Delta: []json.RawMessage{
		json.RawMessage(`{"op":"replace","path":"/counter","value":5}`),
	}})
	if e.state.Counter != 5 {
		t.Fatalf("counter=%d", e.state.Counter)
	}
}

func TestStateDeltaBadPathIsAtomic(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{Counter: 3})
	_, err := e.handleEvent(context.Background(), &events.StateDeltaEvent{Delta: []json.RawMessage{
		json.RawMessage(`{"op":"replace","path":"/counter","value":9}`),
		json.RawMessage(`{"op":"replace","path":"/missing","value":1}`),
	}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errmodel.IsCategory(err, errmodel.CategoryExecution) {
		t.Fatalf("category: %v", err)
	}
	if e.state.Counter != 3 {
		t.Fatalf("state mutated: counter=%d", e.state.Counter)
	}
}

func TestRunFinishedCapturesResult(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{})
	dispatch[counterState](t, e, &events.RunFinishedEvent{ThreadID: "t", RunID: "r", Result: json.RawMessage(`{"ok":true}`)})
	if string(e.result) != `{"ok":true}` {
		t.Fatalf("result=%s", e.result)
	}

	e2 := newTestExecutor(t, nil, counterState{})
	dispatch[counterState](t, e2, &events.RunFinishedEvent{ThreadID: "t", RunID: "r"})
	if e2.result != nil {
		t.Fatalf("result=%s", e2.result)
	}
}

func TestToolCallStartAttachesToMatchingParent(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{})
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.TextMessageEndEvent{MessageID: "m1"},
		&events.ToolCallStartEvent{ToolCallID: "call_1", ToolCallName: "lookup", ParentMessageID: "m1"},
		&events.ToolCallArgsEvent{ToolCallID: "call_1", Delta: `{"q":`},
		&events.ToolCallArgsEvent{ToolCallID: "call_1", Delta: `"go"}`},
	)
	if len(e.messages) != 1 {
		t.Fatalf("messages=%d", len(e.messages))
	}
	call := e.messages[0].LastToolCall()
	if call == nil || call.ID != "call_1" || call.Function.Name != "lookup" {
		t.Fatalf("tool call %+v", call)
	}
	if call.Function.Arguments != `{"q":"go"}` {
		t.Fatalf("arguments=%q", call.Function.Arguments)
	}
}

func TestToolCallStartMismatchOpensMessageWithCall(t *testing.T) {
	e := newTestExecutor(t, nil, counterState{})
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.ToolCallStartEvent{ToolCallID: "call_9", ToolCallName: "lookup", ParentMessageID: "other"},
	)
	if len(e.messages) != 2 {
		t.Fatalf("messages=%d", len(e.messages))
	}
	m := e.messages[1]
	if m.ID != "other" || m.Role != types.RoleAssistant {
		t.Fatalf("unexpected message %+v", m)
	}
	if call := m.LastToolCall(); call == nil || call.ID != "call_9" {
		t.Fatalf("tool call not attached: %+v", m.ToolCalls)
	}
}

// collector records notifications and hook buffers.
type collector struct {
	BaseSubscriber[counterState]
	newMessages     []types.MessageID
	newToolCalls    []types.ToolCallID
	messagesChanged int
	stateChanged    int
	textBuffers     []string
	argsBuffers     []string
	argsNames       []string
}

func (c *collector) OnNewMessage(_ context.Context, msg *types.Message, _ SubscriberParams[counterState]) error {
	c.newMessages = append(c.newMessages, msg.ID)
	return nil
}

func (c *collector) OnNewToolCall(_ context.Context, call *types.ToolCall, _ SubscriberParams[counterState]) error {
	c.newToolCalls = append(c.newToolCalls, call.ID)
	return nil
}

func (c *collector) OnMessagesChanged(context.Context, SubscriberParams[counterState]) error {
	c.messagesChanged++
	return nil
}

func (c *collector) OnStateChanged(context.Context, SubscriberParams[counterState]) error {
	c.stateChanged++
	return nil
}

func (c *collector) OnTextMessageContent(_ context.Context, _ *events.TextMessageContentEvent, buffer string, _ SubscriberParams[counterState]) (StateMutation[counterState], error) {
	c.textBuffers = append(c.textBuffers, buffer)
	return StateMutation[counterState]{}, nil
}

func (c *collector) OnToolCallArgs(_ context.Context, _ *events.ToolCallArgsEvent, buffer, name string, _ map[string]any, _ SubscriberParams[counterState]) (StateMutation[counterState], error) {
	c.argsBuffers = append(c.argsBuffers, buffer)
	c.argsNames = append(c.argsNames, name)
	return StateMutation[counterState]{}, nil
}

func TestNewMessageNotifiedOncePerID(t *testing.T) {
	initial := []types.Message{types.NewUserMessage("hi")}
	col := &collector{}
	e := newTestExecutor[counterState](t, initial, counterState{}, col)
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.TextMessageContentEvent{MessageID: "m1", Delta: "hey"},
		&events.TextMessageEndEvent{MessageID: "m1"},
	)
	if len(col.newMessages) != 1 || col.newMessages[0] != "m1" {
		t.Fatalf("newMessages=%v", col.newMessages)
	}
	// The initial user message id must never announce.
	for _, id := range col.newMessages {
		if id == initial[0].ID {
			t.Fatalf("initial message announced: %v", id)
		}
	}
}

func TestNewToolCallNotifiedForFreshAssistantMessage(t *testing.T) {
	col := &collector{}
	e := newTestExecutor[counterState](t, nil, counterState{}, col)
	dispatch[counterState](t, e,
		&events.ToolCallStartEvent{ToolCallID: "call_5", ToolCallName: "lookup", ParentMessageID: "m1"},
	)
	if len(col.newToolCalls) != 1 || col.newToolCalls[0] != "call_5" {
		t.Fatalf("newToolCalls=%v", col.newToolCalls)
	}
}

func TestHookBuffers(t *testing.T) {
	col := &collector{}
	e := newTestExecutor[counterState](t, nil, counterState{}, col)
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.TextMessageContentEvent{MessageID: "m1", Delta: "He"},
		&events.TextMessageContentEvent{MessageID: "m1", Delta: "llo"},
		&events.ToolCallStartEvent{ToolCallID: "call_1", ToolCallName: "lookup", ParentMessageID: "m1"},
		&events.ToolCallArgsEvent{ToolCallID: "call_1", Delta: `{"a"`},
		&events.ToolCallArgsEvent{ToolCallID: "call_1", Delta: `:1}`},
	)
	if len(col.textBuffers) != 2 || col.textBuffers[0] != "He" || col.textBuffers[1] != "Hello" {
		t.Fatalf("textBuffers=%v", col.textBuffers)
	}
	if len(col.argsBuffers) != 2 || col.argsBuffers[0] != `{"a"` || col.argsBuffers[1] != `{"a":1}` {
		t.Fatalf("argsBuffers=%v", col.argsBuffers)
	}
	if col.argsNames[0] != "lookup" || col.argsNames[1] != "lookup" {
		t.Fatalf("argsNames=%v", col.argsNames)
	}
}

// stopper overrides the state on a chosen hook and stops propagation.
type stopper struct {
	BaseSubscriber[counterState]
	counter int
	stop    bool
}

func (s *stopper) OnTextMessageStart(context.Context, *events.TextMessageStartEvent, SubscriberParams[counterState]) (StateMutation[counterState], error) {
	st := counterState{Counter: s.counter}
	return StateMutation[counterState]{State: &st, StopPropagation: s.stop}, nil
}

func TestStopPropagationBlocksLaterMutations(t *testing.T) {
	first := &stopper{counter: 1, stop: true}
	second := &stopper{counter: 2}
	e := newTestExecutor[counterState](t, nil, counterState{}, first, second)
	dispatch[counterState](t, e, &events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant})
	if e.state.Counter != 1 {
		t.Fatalf("counter=%d, second subscriber's mutation leaked", e.state.Counter)
	}
}

func TestMutationMergeLastWriterWins(t *testing.T) {
	first := &stopper{counter: 1}
	second := &stopper{counter: 2}
	e := newTestExecutor[counterState](t, nil, counterState{}, first, second)
	dispatch[counterState](t, e, &events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant})
	if e.state.Counter != 2 {
		t.Fatalf("counter=%d", e.state.Counter)
	}
}

func TestNotificationFanout(t *testing.T) {
	col := &collector{}
	e := newTestExecutor[counterState](t, nil, counterState{}, col)
	dispatch[counterState](t, e,
		&events.TextMessageStartEvent{MessageID: "m1", Role: types.RoleAssistant},
		&events.StateSnapshotEvent{Snapshot: json.RawMessage(`{"counter":4}`)},
	)
	if col.messagesChanged != 1 {
		t.Fatalf("messagesChanged=%d", col.messagesChanged)
	}
	if col.stateChanged != 1 {
		t.Fatalf("stateChanged=%d", col.stateChanged)
	}
}
