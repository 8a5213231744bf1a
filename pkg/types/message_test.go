package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleDeveloper, RoleSystem, RoleAssistant, RoleUser, RoleTool} {
		if !r.Valid() {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Role("moderator").Valid() {
		t.Fatal("moderator should not be valid")
	}
}

func TestMessageUnmarshalRejectsUnknownRole(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"id":"m1","role":"moderator","content":"x"}`), &m)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "moderator") {
		t.Fatalf("err=%v", err)
	}
}

func TestMessageWireFields(t *testing.T) {
	msg := Message{
		ID:   "m1",
		Role: RoleAssistant,
		ToolCalls: []ToolCall{NewToolCall("call_1", FunctionCall{Name: "lookup", Arguments: "{}"})},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"toolCalls"`) {
		t.Fatalf("assistant wire: %s", s)
	}
	if strings.Contains(s, `"content"`) {
		t.Fatalf("absent content must stay absent: %s", s)
	}

	tool := NewToolMessage("ok", "call_1")
	b, err = json.Marshal(tool)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"toolCallId":"call_1"`) {
		t.Fatalf("tool wire: %s", b)
	}
}

func TestAppendContent(t *testing.T) {
	var m Message
	m.AppendContent("He")
	m.AppendContent("llo")
	if m.ContentString() != "Hello" {
		t.Fatalf("content=%q", m.ContentString())
	}

	// Absent and empty are distinct states.
	var absent Message
	if absent.Content != nil {
		t.Fatal("zero message must have absent content")
	}
	empty := ""
	withEmpty := Message{Content: &empty}
	if withEmpty.Content == nil || *withEmpty.Content != "" {
		t.Fatal("empty content lost")
	}
}

func TestCloneIsDeep(t *testing.T) {
	content := "hi"
	orig := Message{
		ID:      "m1",
		Role:    RoleAssistant,
		Content: &content,
		ToolCalls: []ToolCall{NewToolCall("call_1", FunctionCall{Name: "lookup"})},
	}
	cp := orig.Clone()
	*cp.Content = "changed"
	cp.ToolCalls[0].Function.Arguments = "{}"
	if *orig.Content != "hi" {
		t.Fatal("content aliased")
	}
	if orig.ToolCalls[0].Function.Arguments != "" {
		t.Fatal("tool calls aliased")
	}
}

func TestNewIDs(t *testing.T) {
	if NewMessageID() == NewMessageID() {
		t.Fatal("message ids must be unique")
	}
	call := NewToolCallID()
	if !strings.HasPrefix(string(call), "call_") || len(call) != len("call_")+8 {
		t.Fatalf("tool call id %q", call)
	}
}

func TestRunAgentInputWireFields(t *testing.T) {
	in := RunAgentInput{
		ThreadID:       "t1",
		RunID:          "r1",
		State:          json.RawMessage(`{}`),
		Messages:       []Message{NewUserMessage("hi")},
		Tools:          []Tool{{Name: "lookup"}},
		Context:        []Context{{Description: "locale", Value: "en"}},
		ForwardedProps: json.RawMessage(`null`),
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, field := range []string{`"threadId":"t1"`, `"runId":"r1"`, `"forwardedProps"`, `"messages"`, `"tools"`, `"context"`} {
		if !strings.Contains(s, field) {
			t.Fatalf("missing %s in %s", field, s)
		}
	}
}
