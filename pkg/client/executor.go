package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/types"
)

// executor owns the canonical transcript and state for one run. It applies
// each event's default reconstruction rule, dispatches subscriber hooks, and
// merges their mutations in registration order.
//
// An executor is confined to the goroutine driving the run; events process
// strictly one at a time, so no locking is needed.
type executor[S any] struct {
	messages []types.Message
	state    S
	input    *types.RunAgentInput
	subs     []Subscriber[S]
	result   json.RawMessage

	// seen tracks message ids already announced via OnNewMessage, primed
	// with the ids of the initial input so those never re-announce.
	seen map[types.MessageID]struct{}

	log *slog.Logger
}

func newExecutor[S any](input *types.RunAgentInput, state S, subs []Subscriber[S], log *slog.Logger) *executor[S] {
	seen := make(map[types.MessageID]struct{}, len(input.Messages))
	for _, m := range input.Messages {
		seen[m.ID] = struct{}{}
	}
	return &executor[S]{
		messages: types.CloneMessages(input.Messages),
		state:    state,
		input:    input,
		subs:     subs,
		seen:     seen,
		log:      log,
	}
}

func (e *executor[S]) params() SubscriberParams[S] {
	return SubscriberParams[S]{Messages: e.messages, State: e.state, Input: e.input}
}

// subscriberErr adopts typed errors a subscriber returns and wraps everything
// else into the subscriber category.
func subscriberErr(err error) error {
	var ce *errmodel.Error
	if errors.As(err, &ce) {
		return ce
	}
	return errmodel.Subscriber(err)
}

// update replaces canonical messages/state from a mutation without firing
// notifications.
func (e *executor[S]) update(m StateMutation[S]) {
	if m.Messages != nil {
		e.messages = m.Messages
	}
	if m.State != nil {
		e.state = *m.State
	}
}

// process applies one subscriber mutation and records it into the merged
// mutation. Later writers overwrite earlier ones.
func (e *executor[S]) process(m StateMutation[S], merged *StateMutation[S]) {
	if m.empty() {
		return
	}
	e.update(m)
	if m.Messages != nil {
		merged.Messages = m.Messages
	}
	if m.State != nil {
		merged.State = m.State
	}
}

// recordMessages snapshots the canonical transcript into the merged mutation
// after a default reconstruction rule changed it.
func (e *executor[S]) recordMessages(merged *StateMutation[S]) {
	merged.Messages = types.CloneMessages(e.messages)
}

func (e *executor[S]) recordState(merged *StateMutation[S]) {
	s := e.state
	merged.State = &s
}

// lastTextBuffer returns the content accumulated on the message under
// construction.
func (e *executor[S]) lastTextBuffer() string {
	if len(e.messages) == 0 {
		return ""
	}
	return e.messages[len(e.messages)-1].ContentString()
}

// lastToolCallBuffer returns the raw argument buffer, name, and a best-effort
// parse of the arguments of the last tool call of the last message.
func (e *executor[S]) lastToolCallBuffer() (buffer, name string, partial map[string]any) {
	if len(e.messages) == 0 {
		return "", "", nil
	}
	call := e.messages[len(e.messages)-1].LastToolCall()
	if call == nil {
		return "", "", nil
	}
	// Partial parse is lenient: until the buffer is complete JSON there is
	// simply nothing structured to report.
	_ = json.Unmarshal([]byte(call.Function.Arguments), &partial)
	return call.Function.Arguments, call.Function.Name, partial
}

// handleEvent runs the per-event pipeline: generic hooks, the default
// reconstruction rule, event-specific hooks, then an ordered merge of all
// collected mutations with stop-propagation short-circuit. The returned
// mutation is what applyMutation should publish.
func (e *executor[S]) handleEvent(ctx context.Context, ev events.Event) (StateMutation[S], error) {
	var merged StateMutation[S]
	mutations := make([]StateMutation[S], 0, len(e.subs))

	for _, sub := range e.subs {
		m, err := sub.OnEvent(ctx, ev, e.params())
		if err != nil {
			return merged, subscriberErr(err)
		}
		mutations = append(mutations, m)
	}

	switch t := ev.(type) {
	case *events.TextMessageStartEvent:
		empty := ""
		e.messages = append(e.messages, types.Message{ID: t.MessageID, Role: types.RoleAssistant, Content: &empty})
		e.recordMessages(&merged)
		for _, sub := range e.subs {
			m, err := sub.OnTextMessageStart(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.TextMessageContentEvent:
		if len(e.messages) > 0 {
			e.messages[len(e.messages)-1].AppendContent(t.Delta)
			e.recordMessages(&merged)
		}
		buffer := e.lastTextBuffer()
		for _, sub := range e.subs {
			m, err := sub.OnTextMessageContent(ctx, t, buffer, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.TextMessageEndEvent:
		buffer := e.lastTextBuffer()
		for _, sub := range e.subs {
			m, err := sub.OnTextMessageEnd(ctx, t, buffer, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.TextMessageChunkEvent:
		for _, sub := range e.subs {
			m, err := sub.OnTextMessageChunk(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ThinkingStartEvent:
		for _, sub := range e.subs {
			m, err := sub.OnThinkingStart(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ThinkingEndEvent:
		for _, sub := range e.subs {
			m, err := sub.OnThinkingEnd(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ThinkingTextMessageStartEvent:
		for _, sub := range e.subs {
			m, err := sub.OnThinkingTextMessageStart(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ThinkingTextMessageContentEvent:
		for _, sub := range e.subs {
			m, err := sub.OnThinkingTextMessageContent(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ThinkingTextMessageEndEvent:
		for _, sub := range e.subs {
			m, err := sub.OnThinkingTextMessageEnd(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ToolCallStartEvent:
		call := types.NewToolCall(t.ToolCallID, types.FunctionCall{Name: t.ToolCallName})
		if n := len(e.messages); n > 0 && t.ParentMessageID != "" && e.messages[n-1].ID == t.ParentMessageID {
			e.messages[n-1].ToolCalls = append(e.messages[n-1].ToolCalls, call)
		} else {
			// No message to attach to: open a fresh assistant message keyed
			// by the declared parent id and attach the call there.
			id := t.ParentMessageID
			if id == "" {
				id = types.NewMessageID()
			}
			e.messages = append(e.messages, types.Message{ID: id, Role: types.RoleAssistant, ToolCalls: []types.ToolCall{call}})
		}
		e.recordMessages(&merged)
		for _, sub := range e.subs {
			m, err := sub.OnToolCallStart(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ToolCallArgsEvent:
		if n := len(e.messages); n > 0 {
			if call := e.messages[n-1].LastToolCall(); call != nil {
				call.Function.Arguments += t.Delta
				e.recordMessages(&merged)
			}
		}
		buffer, name, partial := e.lastToolCallBuffer()
		for _, sub := range e.subs {
			m, err := sub.OnToolCallArgs(ctx, t, buffer, name, partial, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ToolCallEndEvent:
		_, name, args := e.lastToolCallBuffer()
		for _, sub := range e.subs {
			m, err := sub.OnToolCallEnd(ctx, t, name, args, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ToolCallChunkEvent:
		for _, sub := range e.subs {
			m, err := sub.OnToolCallChunk(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.ToolCallResultEvent:
		for _, sub := range e.subs {
			m, err := sub.OnToolCallResult(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.StateSnapshotEvent:
		var next S
		if err := json.Unmarshal(t.Snapshot, &next); err != nil {
			return merged, errmodel.JSON(err)
		}
		e.state = next
		e.recordState(&merged)
		for _, sub := range e.subs {
			m, err := sub.OnStateSnapshot(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.StateDeltaEvent:
		next, err := e.patchState(t.Delta)
		if err != nil {
			return merged, err
		}
		e.state = next
		e.recordState(&merged)
		for _, sub := range e.subs {
			m, err := sub.OnStateDelta(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.MessagesSnapshotEvent:
		for _, sub := range e.subs {
			m, err := sub.OnMessagesSnapshot(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.RawEvent:
		for _, sub := range e.subs {
			m, err := sub.OnRaw(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.CustomEvent:
		for _, sub := range e.subs {
			m, err := sub.OnCustom(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.RunStartedEvent:
		for _, sub := range e.subs {
			m, err := sub.OnRunStarted(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.RunFinishedEvent:
		e.result = t.Result
		for _, sub := range e.subs {
			m, err := sub.OnRunFinished(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.RunErrorEvent:
		for _, sub := range e.subs {
			m, err := sub.OnRunError(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.StepStartedEvent:
		for _, sub := range e.subs {
			m, err := sub.OnStepStarted(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}

	case *events.StepFinishedEvent:
		for _, sub := range e.subs {
			m, err := sub.OnStepFinished(ctx, t, e.params())
			if err != nil {
				return merged, subscriberErr(err)
			}
			mutations = append(mutations, m)
		}
	}

	for _, m := range mutations {
		if m.StopPropagation {
			e.update(m)
			return m, nil
		}
		e.process(m, &merged)
	}

	return merged, nil
}

// patchState applies an ordered RFC 6902 patch to the canonical state. The
// patch is atomic: any failing operation aborts the whole application and the
// state is left untouched.
func (e *executor[S]) patchState(delta []json.RawMessage) (S, error) {
	var zero S
	doc, err := json.Marshal(e.state)
	if err != nil {
		return zero, errmodel.JSON(err)
	}
	raw, err := json.Marshal(delta)
	if err != nil {
		return zero, errmodel.JSON(err)
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return zero, errmodel.JSON(err)
	}
	patched, err := patch.Apply(doc)
	if err != nil {
		return zero, errmodel.Execution("apply state patch: " + err.Error())
	}
	var next S
	if err := json.Unmarshal(patched, &next); err != nil {
		return zero, errmodel.JSON(err)
	}
	return next, nil
}

// applyMutation publishes the merged mutation: messages not yet announced get
// OnNewMessage (and, for assistant messages, OnNewToolCall per call), then a
// single OnMessagesChanged fires if the transcript was replaced, then a single
// OnStateChanged if the state was.
func (e *executor[S]) applyMutation(ctx context.Context, m StateMutation[S]) error {
	if m.Messages != nil {
		e.messages = m.Messages
		for i := range e.messages {
			msg := &e.messages[i]
			if _, ok := e.seen[msg.ID]; ok {
				continue
			}
			e.seen[msg.ID] = struct{}{}
			if err := e.notifyNewMessage(ctx, msg); err != nil {
				return err
			}
			if msg.Role == types.RoleAssistant {
				for j := range msg.ToolCalls {
					if err := e.notifyNewToolCall(ctx, &msg.ToolCalls[j]); err != nil {
						return err
					}
				}
			}
		}
		if err := e.notifyMessagesChanged(ctx); err != nil {
			return err
		}
	}
	if m.State != nil {
		e.state = *m.State
		if err := e.notifyStateChanged(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *executor[S]) notifyNewMessage(ctx context.Context, msg *types.Message) error {
	for _, sub := range e.subs {
		if err := sub.OnNewMessage(ctx, msg, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}

func (e *executor[S]) notifyNewToolCall(ctx context.Context, call *types.ToolCall) error {
	for _, sub := range e.subs {
		if err := sub.OnNewToolCall(ctx, call, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}

func (e *executor[S]) notifyMessagesChanged(ctx context.Context) error {
	for _, sub := range e.subs {
		if err := sub.OnMessagesChanged(ctx, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}

func (e *executor[S]) notifyStateChanged(ctx context.Context) error {
	for _, sub := range e.subs {
		if err := sub.OnStateChanged(ctx, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}

// initialize dispatches OnRunInitialized with the same merge and publication
// rules as a regular event.
func (e *executor[S]) initialize(ctx context.Context) error {
	var merged StateMutation[S]
	for _, sub := range e.subs {
		m, err := sub.OnRunInitialized(ctx, e.params())
		if err != nil {
			return subscriberErr(err)
		}
		if m.StopPropagation {
			e.update(m)
			merged = m
			break
		}
		e.process(m, &merged)
	}
	return e.applyMutation(ctx, merged)
}

// fail notifies subscribers that the run aborted. A hook failure here
// propagates to the caller in place of nothing; the original run error is
// reported separately by the run loop.
func (e *executor[S]) fail(ctx context.Context, runErr error) error {
	e.log.ErrorContext(ctx, "run failed",
		slog.String("thread_id", string(e.input.ThreadID)),
		slog.String("run_id", string(e.input.RunID)),
		slog.String("error", runErr.Error()))
	for _, sub := range e.subs {
		if _, err := sub.OnRunFailed(ctx, runErr, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}

// finalize fires on every terminal path, success or failure.
func (e *executor[S]) finalize(ctx context.Context) error {
	for _, sub := range e.subs {
		if _, err := sub.OnRunFinalized(ctx, e.params()); err != nil {
			return subscriberErr(err)
		}
	}
	return nil
}
