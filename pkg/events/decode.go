package events

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/wilhg/agui/pkg/errmodel"
)

// Decode maps a frame payload onto its event variant via the "type"
// discriminator. Decoding is strict: a missing or unrecognized discriminator
// and any malformed payload are hard errors.
func Decode(data []byte) (Event, error) {
	t := gjson.GetBytes(data, "type")
	if !t.Exists() {
		return nil, errmodel.JSON(fmt.Errorf("event payload missing type discriminator"))
	}

	var ev Event
	switch EventType(t.String()) {
	case TypeTextMessageStart:
		ev = &TextMessageStartEvent{}
	case TypeTextMessageContent:
		ev = &TextMessageContentEvent{}
	case TypeTextMessageEnd:
		ev = &TextMessageEndEvent{}
	case TypeTextMessageChunk:
		ev = &TextMessageChunkEvent{}
	case TypeThinkingTextMessageStart:
		ev = &ThinkingTextMessageStartEvent{}
	case TypeThinkingTextMessageContent:
		ev = &ThinkingTextMessageContentEvent{}
	case TypeThinkingTextMessageEnd:
		ev = &ThinkingTextMessageEndEvent{}
	case TypeToolCallStart:
		ev = &ToolCallStartEvent{}
	case TypeToolCallArgs:
		ev = &ToolCallArgsEvent{}
	case TypeToolCallEnd:
		ev = &ToolCallEndEvent{}
	case TypeToolCallChunk:
		ev = &ToolCallChunkEvent{}
	case TypeToolCallResult:
		ev = &ToolCallResultEvent{}
	case TypeThinkingStart:
		ev = &ThinkingStartEvent{}
	case TypeThinkingEnd:
		ev = &ThinkingEndEvent{}
	case TypeStateSnapshot:
		ev = &StateSnapshotEvent{}
	case TypeStateDelta:
		ev = &StateDeltaEvent{}
	case TypeMessagesSnapshot:
		ev = &MessagesSnapshotEvent{}
	case TypeRaw:
		ev = &RawEvent{}
	case TypeCustom:
		ev = &CustomEvent{}
	case TypeRunStarted:
		ev = &RunStartedEvent{}
	case TypeRunFinished:
		ev = &RunFinishedEvent{}
	case TypeRunError:
		ev = &RunErrorEvent{}
	case TypeStepStarted:
		ev = &StepStartedEvent{}
	case TypeStepFinished:
		ev = &StepFinishedEvent{}
	default:
		return nil, errmodel.JSON(fmt.Errorf("unknown event type %q", t.String()))
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, errmodel.JSON(fmt.Errorf("decode %s event: %w", t.String(), err))
	}
	return ev, nil
}
